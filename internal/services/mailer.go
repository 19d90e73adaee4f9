package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/qubzes/baiyit/internal/models"
)

const (
	emailQueueKey   = "baiyit:email"
	popTimeout      = 5 * time.Second
	maxMailAttempts = 3
)

// EmailJob is one queued OTP email. Attempts counts delivery tries so the
// worker can requeue failures up to a cap (at-least-once).
type EmailJob struct {
	To         string `json:"to"`
	FirstName  string `json:"first_name"`
	OTP        string `json:"otp"`
	NewAccount bool   `json:"new_account"`
	Attempts   int    `json:"attempts"`
}

// MailQueue is the request-side producer: it only pushes jobs onto a Redis
// list, keeping SMTP latency off the request path.
type MailQueue struct {
	rdb *redis.Client
}

// NewMailQueue wraps the shared Redis client.
func NewMailQueue(rdb *redis.Client) *MailQueue {
	return &MailQueue{rdb: rdb}
}

// EnqueueOTP queues the registration or sign-in OTP email for the user.
func (q *MailQueue) EnqueueOTP(ctx context.Context, user *models.User, code string, isNew bool) error {
	job := EmailJob{
		To:         user.Email,
		FirstName:  user.FirstName,
		OTP:        code,
		NewAccount: isNew,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, emailQueueKey, payload).Err()
}

// SMTPConfig carries the relay settings for outbound mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
}

// MailWorker drains the email queue and delivers through the SMTP relay.
type MailWorker struct {
	rdb    *redis.Client
	dialer *gomail.Dialer
	from   string
	name   string
}

// NewMailWorker builds a worker over the shared Redis client.
func NewMailWorker(rdb *redis.Client, cfg SMTPConfig) *MailWorker {
	return &MailWorker{
		rdb:    rdb,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Username,
		name:   cfg.FromName,
	}
}

// Run blocks on the queue until the context is cancelled. Failed deliveries
// are requeued with an incremented attempt counter up to maxMailAttempts.
func (w *MailWorker) Run(ctx context.Context) {
	log.Info().Msg("mail worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("mail worker stopped")
			return
		}

		result, err := w.rdb.BRPop(ctx, popTimeout, emailQueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("mail queue pop failed")
			time.Sleep(time.Second)
			continue
		}

		var job EmailJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error().Err(err).Msg("dropping malformed mail job")
			continue
		}

		if err := w.send(job); err != nil {
			job.Attempts++
			if job.Attempts >= maxMailAttempts {
				log.Error().Err(err).Str("to", job.To).Msg("giving up on mail job")
				continue
			}
			log.Warn().Err(err).Str("to", job.To).Int("attempts", job.Attempts).Msg("requeueing mail job")
			if payload, mErr := json.Marshal(job); mErr == nil {
				if pushErr := w.rdb.LPush(ctx, emailQueueKey, payload).Err(); pushErr != nil {
					log.Error().Err(pushErr).Msg("requeue failed")
				}
			}
		}
	}
}

func (w *MailWorker) send(job EmailJob) error {
	subject := "Your OTP Code for Authentication"
	if job.NewAccount {
		subject = "Welcome to Baiyit - Verify Your Account"
	}

	body, err := RenderOTPEmail(job)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", w.from, w.name)
	msg.SetHeader("To", job.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	return w.dialer.DialAndSend(msg)
}

var registrationTemplate = template.Must(template.New("registration").Parse(`
<html><body>
<h2>Welcome, {{.FirstName}}!</h2>
<p>Thanks for creating an account. Use the code below to verify it:</p>
<h1>{{.OTP}}</h1>
<p>The code expires in 15 minutes.</p>
</body></html>`))

var signInTemplate = template.Must(template.New("sign-in").Parse(`
<html><body>
<h2>Hi {{.FirstName}},</h2>
<p>Your sign-in code:</p>
<h1>{{.OTP}}</h1>
<p>The code expires in 15 minutes. If you did not request it, ignore this email.</p>
</body></html>`))

// RenderOTPEmail renders the registration or sign-in template for the job.
func RenderOTPEmail(job EmailJob) (string, error) {
	tmpl := signInTemplate
	if job.NewAccount {
		tmpl = registrationTemplate
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, job); err != nil {
		return "", err
	}
	return buf.String(), nil
}
