package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"kalshi-trades/internal/errs"
)

// maxListedFailures caps the failed days printed in one card.
const maxListedFailures = 10

// LarkNotifier posts an interactive card to a Lark/Feishu bot webhook.
type LarkNotifier struct {
	webhook string
	client  *resty.Client
	now     func() time.Time
}

func NewLarkNotifier(webhook string, timeout time.Duration) *LarkNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	return &LarkNotifier{webhook: webhook, client: c, now: time.Now}
}

type larkResponse struct {
	Code       *int   `json:"code"`
	StatusCode *int   `json:"StatusCode"`
	Msg        string `json:"msg"`
}

func (r larkResponse) ok() bool {
	return (r.Code != nil && *r.Code == 0) || (r.StatusCode != nil && *r.StatusCode == 0)
}

// Notify sends the summary card. The bot reports errors in the body with a
// non-zero code even on HTTP 200.
func (n *LarkNotifier) Notify(ctx context.Context, s RunSummary) error {
	body, err := json.Marshal(n.card(s))
	if err != nil {
		return errs.Wrap(errs.CodeUnknown, "marshal lark card", err)
	}
	resp, err := n.client.R().SetContext(ctx).SetBody(body).Post(n.webhook)
	if err != nil {
		return errs.Wrap(errs.CodeNetwork, "send lark notification", err)
	}
	if resp.StatusCode() != 200 {
		return errs.Newf(errs.CodeServerStatus, "lark webhook status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	var lr larkResponse
	if err := json.Unmarshal(resp.Body(), &lr); err != nil {
		return errs.Wrap(errs.CodeMalformedResponse, "decode lark response", err)
	}
	if !lr.ok() {
		return errs.Newf(errs.CodeClientStatus, "lark api error: %s", truncate(resp.String(), 200))
	}
	return nil
}

func (n *LarkNotifier) card(s RunSummary) map[string]any {
	title := "Kalshi trades download succeeded"
	template := "green"
	if !s.OK() {
		title = "Kalshi trades download failed"
		template = "red"
	}
	return map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"config": map[string]any{"wide_screen_mode": true},
			"header": map[string]any{
				"title":    map[string]any{"tag": "plain_text", "content": title},
				"template": template,
			},
			"elements": []any{
				map[string]any{
					"tag":  "div",
					"text": map[string]any{"tag": "lark_md", "content": n.cardText(s)},
				},
			},
		},
	}
}

func (n *LarkNotifier) cardText(s RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Time**: %s\n", n.now().Format("2006-01-02 15:04:05"))
	if s.RunID != "" {
		fmt.Fprintf(&b, "**Run ID**: %s\n", s.RunID)
	}
	if s.Start != "" && s.End != "" {
		fmt.Fprintf(&b, "**Range**: %s to %s\n", s.Start, s.End)
	}
	if s.Message != "" {
		fmt.Fprintf(&b, "%s\n", s.Message)
	}
	fmt.Fprintf(&b, "**Saved**: %d days, %d trades\n", s.Success, s.Trades)
	if s.Failed > 0 {
		fmt.Fprintf(&b, "**Failed**: %d days\n", s.Failed)
		for i, f := range s.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(&b, "(+%d more)\n", len(s.Failures)-maxListedFailures)
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", f.Date, truncate(f.Reason, 160))
		}
	}
	if s.NotStarted > 0 {
		fmt.Fprintf(&b, "**Not started**: %d days\n", s.NotStarted)
	}
	if s.Elapsed > 0 {
		fmt.Fprintf(&b, "**Elapsed**: %s\n", s.Elapsed.Round(time.Second))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
