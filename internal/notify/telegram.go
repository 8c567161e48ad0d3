package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"time"
)

// TelegramConfig carries two credential sets: the production bot and an
// optional local one. When the machine's outbound IP matches Local.IP the
// local credentials win, so a development box never posts to the production
// channel.
type TelegramConfig struct {
	API           string `mapstructure:"api"`
	Token         string `mapstructure:"token"`
	ChatID        string `mapstructure:"id"`
	TextEndpoint  string `mapstructure:"text_endpoint"`
	ImageEndpoint string `mapstructure:"image_endpoint"`
	SystemCode    string `mapstructure:"system_code"`
	Local         struct {
		IP     string `mapstructure:"ip"`
		Token  string `mapstructure:"token"`
		ChatID string `mapstructure:"id"`
	} `mapstructure:"local"`
}

var _ Service = (*Telegram)(nil)

type Telegram struct {
	api           string
	token         string
	chatID        string
	textEndpoint  string
	imageEndpoint string
	systemCode    string
	client        *http.Client
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	t := &Telegram{
		api:           cfg.API,
		token:         cfg.Token,
		chatID:        cfg.ChatID,
		textEndpoint:  cfg.TextEndpoint,
		imageEndpoint: cfg.ImageEndpoint,
		systemCode:    cfg.SystemCode,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
	if t.api == "" {
		t.api = "https://api.telegram.org/bot"
	}
	if t.textEndpoint == "" {
		t.textEndpoint = "/sendMessage"
	}
	if t.imageEndpoint == "" {
		t.imageEndpoint = "/sendPhoto"
	}
	if cfg.Local.IP != "" && cfg.Local.IP == LocalIPAddress() {
		t.token = cfg.Local.Token
		t.chatID = cfg.Local.ChatID
	}
	return t
}

// LocalIPAddress returns the machine's outbound IP. No packet is sent; the
// dial only forces the kernel to pick a source address.
func LocalIPAddress() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}

func (t *Telegram) SendText(ctx context.Context, base, message string) error {
	if base != "" {
		message = fmt.Sprintf("%s %s", base, message)
	}
	if t.systemCode != "" {
		message = fmt.Sprintf("(%s) %s", t.systemCode, message)
	}

	params := url.Values{}
	params.Set("chat_id", t.chatID)
	params.Set("text", message)
	endpoint := fmt.Sprintf("%s%s%s?%s", t.api, t.token, t.textEndpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	return t.send(req)
}

func (t *Telegram) SendImage(ctx context.Context, image []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", t.chatID); err != nil {
		return fmt.Errorf("telegram: write field: %w", err)
	}
	part, err := writer.CreateFormFile("photo", "chart.png")
	if err != nil {
		return fmt.Errorf("telegram: create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("telegram: write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("telegram: close multipart: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s%s", t.api, t.token, t.imageEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return t.send(req)
}

func (t *Telegram) send(req *http.Request) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
