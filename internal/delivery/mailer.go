// Package delivery sends the "pack ready" email, either directly over SMTP
// or through the email.send topic consumed by the notifier.
package delivery

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/config"
	"github.com/ariefcatur/go-pack-store/internal/metrics"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"go.uber.org/zap"
	gopkgmail "gopkg.in/gomail.v2"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/pack_ready.html"))
	textTmpl = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/pack_ready.txt"))
)

const (
	shopName = "V3clix Shop"
	subject  = "Votre pack personnalisé est prêt !"
)

type SendFunc func(m ...*gopkgmail.Message) error

type Mailer struct {
	From string
	Send SendFunc
	Log  *zap.Logger
}

func NewMailer(cfg config.SMTP, log *zap.Logger) *Mailer {
	d := gopkgmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Port == 465
	return &Mailer{From: cfg.From, Send: d.DialAndSend, Log: log}
}

type packReadyData struct {
	OrderNumber   string
	DownloadURL   string
	FilesIncluded int
	Size          string
	ExpiresOn     string
	Year          int
	Shop          string
}

// PackReady renders and sends the download email for one pack.
func (m *Mailer) PackReady(_ context.Context, p orders.PackReadyPayload) error {
	msg, err := m.Compose(p)
	if err != nil {
		return err
	}
	err = m.Send(msg)
	metrics.RecordEmail(err == nil)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if m.Log != nil {
		m.Log.Info("email sent", zap.String("order_id", p.OrderID), zap.String("pack_id", p.PackID))
	}
	return nil
}

func (m *Mailer) Compose(p orders.PackReadyPayload) (*gopkgmail.Message, error) {
	data := packReadyData{
		OrderNumber:   p.OrderNumber,
		DownloadURL:   p.DownloadURL,
		FilesIncluded: p.FilesIncluded,
		Size:          fmt.Sprintf("%.2f MB", float64(p.SizeBytes)/(1024*1024)),
		ExpiresOn:     p.ExpiresAt.UTC().Format("02/01/2006 15:04 MST"),
		Year:          time.Now().Year(),
		Shop:          shopName,
	}
	var html, plain bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	if err := textTmpl.Execute(&plain, data); err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}

	msg := gopkgmail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", p.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plain.String())
	msg.AddAlternative("text/html", html.String())
	return msg, nil
}

// LogNotifier stands in for the mailer when no SMTP host is configured.
type LogNotifier struct{ Log *zap.Logger }

func (n LogNotifier) PackReady(_ context.Context, p orders.PackReadyPayload) error {
	n.Log.Info("pack ready (email disabled)",
		zap.String("order_id", p.OrderID),
		zap.String("email", p.Email),
		zap.String("download_url", p.DownloadURL))
	return nil
}
