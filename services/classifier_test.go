package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mindspend/mindspend-api/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"groceries", models.TypeNeed},
		{"Rent", models.TypeNeed},
		{"  UTILITIES ", models.TypeNeed},
		{"healthcare", models.TypeNeed},
		{"insurance", models.TypeNeed},
		{"transportation", models.TypeNeed},
		{"education", models.TypeNeed},
		{"debt", models.TypeNeed},
		{"entertainment", models.TypeWant},
		{"food", models.TypeWant},
		{"", models.TypeWant},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.category))
		})
	}
}
