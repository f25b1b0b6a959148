package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tandemvoice/tandem-core/core/audio"
	"github.com/tandemvoice/tandem-core/core/texttospeech"
)

// SpeechClient synthesizes utterances through Deepgram's streaming speak
// API. One utterance at a time; Speak blocks until the utterance is
// flushed or the context is cancelled.
type SpeechClient struct {
	voice string

	conn   *websocket.Conn
	connMu sync.Mutex
}

const defaultVoice = "aura-2-thalia-en"

// voiceByLanguage holds the default synthesis model per practice
// language. Languages without a dedicated Aura model fall back to the
// client's configured voice.
var voiceByLanguage = map[string]string{
	"en": "aura-2-thalia-en",
	"es": "aura-2-celeste-es",
}

func voiceForLanguage(code string) (string, bool) {
	if voice, ok := voiceByLanguage[code]; ok {
		return voice, true
	}
	if len(code) > 2 {
		if voice, ok := voiceByLanguage[code[:2]]; ok {
			return voice, true
		}
	}
	return "", false
}

func NewSpeechClient(voice string) *SpeechClient {
	if voice == "" {
		voice = defaultVoice
	}
	return &SpeechClient{voice: voice}
}

func (c *SpeechClient) Speak(ctx context.Context, text string, opts ...texttospeech.SpeakOption) error {
	options := &texttospeech.SpeakOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	conn, err := connectWebsocket(c.selectVoice(options), options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	defer func() {
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		conn.Close()
	}()

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "Speak", Text: text}); err != nil {
		return fmt.Errorf("failed to send text for synthesis: %w", err)
	}
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "Flush"}); err != nil {
		return fmt.Errorf("failed to flush synthesis stream: %w", err)
	}

	flushed := make(chan error, 1)
	go readUntilFlushed(conn, *options, flushed)

	select {
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	case err := <-flushed:
		return err
	}
}

// selectVoice resolves the synthesis model for an utterance. An
// explicit voice option wins, then the language's default model, then
// the voice the client was constructed with.
func (c *SpeechClient) selectVoice(options *texttospeech.SpeakOptions) string {
	if options.Voice != "" {
		return options.Voice
	}
	if voice, ok := voiceForLanguage(options.LanguageCode); ok {
		return voice
	}
	return c.voice
}

// Stop cancels the in-flight utterance, if any.
func (c *SpeechClient) Stop() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	return err
}

func connectWebsocket(voice string, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", voice)
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func readUntilFlushed(conn *websocket.Conn, options texttospeech.SpeakOptions, flushed chan<- error) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				flushed <- nil
			} else {
				flushed <- fmt.Errorf("synthesis stream closed unexpectedly: %w", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if options.AudioCallback != nil {
				options.AudioCallback(msg)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				log.Printf("Failed to unmarshal deepgram message: %v", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				flushed <- nil
				return
			case "Error":
				streamErr := fmt.Errorf("synthesis failed: %s", parsedMsg.Description)
				if options.ErrorCallback != nil {
					options.ErrorCallback(streamErr)
				}
				flushed <- streamErr
				return
			}
		}
	}
}
