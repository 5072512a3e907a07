package utils

import (
	"bytes"
	"fmt"
	"html/template"
)

// ============================================================================
// BUDGET ALERT EMAIL
// ============================================================================

const budgetAlertEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Budget Alert</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background-color: #f3f4f6;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0; text-align: center; background: linear-gradient(135deg, #4461f2 0%, #764ba2 100%);">
                <h1 style="margin: 0; color: #ffffff; font-size: 28px; font-weight: bold;">💸 MindSpend</h1>
            </td>
        </tr>
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
                    <tr>
                        <td style="padding: 40px;">
                            <h2 style="margin: 0 0 20px 0; color: #1f2937; font-size: 24px;">Budget Alert</h2>
                            <p style="margin: 0 0 12px 0; color: #4b5563; font-size: 16px;">You've used <strong>{{.Percent}}%</strong> of your {{.Period}} budget.</p>
                            <p style="margin: 0 0 12px 0; color: #4b5563; font-size: 16px;">Budget: {{.Budget}}</p>
                            <p style="margin: 0 0 12px 0; color: #4b5563; font-size: 16px;">Current spending: {{.Spent}}</p>
                            <p style="margin: 20px 0 0 0; color: #6b7280; font-size: 14px;">Consider reviewing your expenses to stay within your budget.</p>
                            {{if .DashboardURL}}<p style="margin: 20px 0 0 0;"><a href="{{.DashboardURL}}" style="color: #4461f2;">Open your dashboard</a></p>{{end}}
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`

var budgetAlertTmpl = template.Must(template.New("budgetAlert").Parse(budgetAlertEmailTemplate))

// BudgetAlertSubject is shared by every email provider.
func BudgetAlertSubject(percentUsed float64) string {
	return fmt.Sprintf("Budget Alert - You've used %.0f%% of your budget", percentUsed)
}

// RenderBudgetAlertEmail returns the HTML and plain-text bodies of a budget alert.
func RenderBudgetAlertEmail(budgetAmount, currentSpending, percentUsed float64, period, frontendURL string) (string, string, error) {
	data := struct {
		Percent      string
		Budget       string
		Spent        string
		Period       string
		DashboardURL string
	}{
		Percent: fmt.Sprintf("%.2f", percentUsed),
		Budget:  fmt.Sprintf("$%.2f", budgetAmount),
		Spent:   fmt.Sprintf("$%.2f", currentSpending),
		Period:  period,
	}
	if frontendURL != "" {
		data.DashboardURL = frontendURL + "/dashboard"
	}

	var body bytes.Buffer
	if err := budgetAlertTmpl.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render budget alert: %w", err)
	}

	text := fmt.Sprintf("You've used %s%% of your %s budget. Budget: %s. Current spending: %s.",
		data.Percent, period, data.Budget, data.Spent)
	return body.String(), text, nil
}
