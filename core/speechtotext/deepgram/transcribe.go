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
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/tandemvoice/tandem-core/core/audio"
	"github.com/tandemvoice/tandem-core/core/speechtotext"
)

func (s *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate:   encoding.SampleRate,
		encoding:     encoding.Format.Name(),
		languageCode: options.LanguageCode,

		interimResults: options.PartialTranscriptCallback != nil,
	})
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.accumulatedTranscript = ""
	s.unendedSegment = false
	s.connMu.Unlock()

	go s.readAndProcessMessages(ctx, conn, *options)

	return nil
}

type connectionOptions struct {
	sampleRate   int
	encoding     string
	languageCode string

	interimResults bool
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	languageCode := options.languageCode
	if languageCode == "" {
		languageCode = "en-US"
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", languageCode)
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")
	queryParams.Set("utterance_end_ms", "1000")
	if options.interimResults {
		queryParams.Set("interim_results", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, err
}

func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("no open transcription stream")
	}

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) sendKeepAlive() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}

	if err := s.conn.WriteJSON(
		struct {
			Type string `json:"type"`
		}{
			Type: "KeepAlive",
		}); err != nil {
		log.Println("Failed to write to deepgram client", "error", err)
	}
}

// StopStream asks the backend to flush and close the current stream.
func (s *TranscriptionClient) StopStream() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		if err := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			return fmt.Errorf("failed to close deepgram stream through websocket: %w", err)
		}
	}
	return nil
}

func (s *TranscriptionClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	keepAliveCtx, keepAliveCancel := context.WithCancel(ctx)
	defer keepAliveCancel()

	go s.keepStreamAlive(keepAliveCtx)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			deliberate := s.conn == nil
			s.conn = nil
			s.connMu.Unlock()
			conn.Close()

			if options.ErrorCallback != nil {
				if deliberate || websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
					options.ErrorCallback(&speechtotext.StreamError{Code: speechtotext.CodeCanceled, Message: err.Error()})
				} else {
					options.ErrorCallback(&speechtotext.StreamError{Code: "read-failed", Message: err.Error()})
				}
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, options)
		}
	}
}

func (s *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}

		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}
		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			return
		}

		if msgResp.IsFinal {
			s.unendedSegment = true
			if s.accumulatedTranscript != "" {
				s.accumulatedTranscript += " "
			}
			s.accumulatedTranscript += transcript
			if options.PartialTranscriptCallback != nil {
				options.PartialTranscriptCallback(s.accumulatedTranscript)
			}
			if msgResp.SpeechFinal {
				s.onSegmentEnded(options)
			}
		} else if options.PartialTranscriptCallback != nil {
			s.unendedSegment = true
			partial := transcript
			if s.accumulatedTranscript != "" {
				partial = s.accumulatedTranscript + " " + transcript
			}
			options.PartialTranscriptCallback(partial)
		}

	case api.TypeUtteranceEndResponse:
		var msgResp api.UtteranceEndResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}

		if s.unendedSegment {
			s.onSegmentEnded(options)
		} else if options.ErrorCallback != nil {
			// An utterance boundary without any transcript means the
			// backend heard nothing usable yet.
			options.ErrorCallback(&speechtotext.StreamError{Code: speechtotext.CodeNoSpeech})
		}

	case "Error":
		var msgResp struct {
			ErrCode     string `json:"err_code"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram error message", err)
			return
		}
		if options.ErrorCallback != nil {
			options.ErrorCallback(&speechtotext.StreamError{Code: msgResp.ErrCode, Message: msgResp.Description})
		}
	}
}

func (s *TranscriptionClient) onSegmentEnded(options speechtotext.TranscriptionOptions) {
	s.unendedSegment = false
	fullTranscript := strings.TrimSpace(s.accumulatedTranscript)
	s.accumulatedTranscript = ""
	if len(fullTranscript) > 0 && options.FinalTranscriptCallback != nil {
		options.FinalTranscriptCallback(fullTranscript)
	}
}

// keepStreamAlive pings the backend during long stretches without audio so
// the websocket is not reaped between user turns.
func (s *TranscriptionClient) keepStreamAlive(ctx context.Context) {
	const keepAliveInterval = 5 * time.Second

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			idle := s.conn != nil && time.Since(s.lastMsgTs) >= keepAliveInterval
			s.connMu.Unlock()
			if idle {
				s.sendKeepAlive()
			}
		}
	}
}
