package notifications

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"whitelister/config"
)

const (
	TELEGRAM_API = "https://api.telegram.org"
)

type NotifyTelegram struct {
	ChatIDs []int  `json:"chatids"`
	APIKey  string `json:"apikey"`
	Enabled bool   `json:"enabled"`

	apiURL string
	client *http.Client
}

// NewTelegram creates a new NotifyTelegram from the notifications section of
// the configuration. An enabled notifier needs an API key and at least one chat.
func NewTelegram(c *config.Telegram) (*NotifyTelegram, error) {

	nt := &NotifyTelegram{
		ChatIDs: c.ChatIDs,
		APIKey:  c.APIKey,
		Enabled: c.Enabled,
		apiURL:  TELEGRAM_API,

		// HTTP client 10s timeout
		client: &http.Client{
			Timeout: time.Second * 10,
		},
	}

	if nt.Enabled && (nt.APIKey == "" || len(nt.ChatIDs) == 0) {
		return nt, errors.New("Telegram enabled without apikey or chatids")
	}

	return nt, nil
}

func (n *NotifyTelegram) IsEnabled() bool {
	return n.Enabled
}

func (n *NotifyTelegram) Send(msg string) error {
	// curl -G \
	//  --data-urlencode "chat_id=111112233" \
	//  --data-urlencode "text=$message" \
	//  https://api.telegram.org/bot${TOKEN}/sendMessage

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.APIKey)

	var firstErr error

	// Loop over chatIds, sending message
	for _, id := range n.ChatIDs {
		if err := n.sendMessage(endpoint, msg, id); err != nil {
			log.WithField("ChatId", id).WithError(err).Error("Unable to send telegram message")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}

	log.WithField("MSG", msg).Info("Sent Telegram Message(s)")

	return nil
}

func (n *NotifyTelegram) sendMessage(endpoint, msg string, chatID int) error {

	q := url.Values{}
	q.Set("chat_id", strconv.Itoa(chatID))
	q.Set("text", msg)

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "Unable to make telegram request")
	}

	req.Header.Add("Content-type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "Unable to reach telegram")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "Unable to read telegram message response")
	}

	log.WithField("Resp", string(body)).Debug("Telegram Reply")

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("Telegram replied %d", resp.StatusCode)
	}

	return nil
}
