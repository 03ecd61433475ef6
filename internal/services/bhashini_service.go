// File: internal/services/bhashini_service.go
package services

import (
	"context"

	"github.com/agrisaarthi/agrisaarthi/internal/services/bhashini"
)

// Degraded-mode constants. Voice and translation features fall back to
// usable text instead of surfacing gateway outages to farmers mid-chat.
const (
	voiceFallbackText = "Voice message received (API unavailable)"

	voiceFlowFallbackMessage = "I received your voice message, but the speech recognition service is currently unavailable. Please try typing your question instead."
)

// Answerer produces the assistant's answer to an English question. The
// combined voice flow calls it between recognition and synthesis.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// BhashiniService is the translation and voice bridge. Each call applies the
// per-capability degradation policy: speech and translation degrade to text,
// synthesis and OCR report their errors.
type BhashiniService struct {
	provider bhashini.Provider
	answerer Answerer
	logger   Logger
}

func NewBhashiniService(apiKey, baseURL string, logger Logger) (*BhashiniService, error) {
	config := bhashini.DefaultConfig()
	config.APIKey = apiKey
	config.BaseURL = baseURL

	provider, err := bhashini.NewHTTPProvider(config, logger)
	if err != nil {
		return nil, err
	}
	return &BhashiniService{provider: provider, logger: logger}, nil
}

// NewBhashiniServiceWithProvider wires a prebuilt provider, used by tests.
func NewBhashiniServiceWithProvider(provider bhashini.Provider, logger Logger) *BhashiniService {
	return &BhashiniService{provider: provider, logger: logger}
}

// SetAnswerer attaches the reply generator used by CompleteVoiceFlow. Set
// after construction because the bot service itself translates through the
// bridge.
func (s *BhashiniService) SetAnswerer(a Answerer) {
	s.answerer = a
}

// SpeechToText transcribes base64 audio, returning the transcript and the
// recognizer's confidence. On gateway failure it returns the fallback
// placeholder text and no error so the message flow continues.
func (s *BhashiniService) SpeechToText(ctx context.Context, audioContent, sourceLanguage string) (string, float64, error) {
	resp, err := s.provider.Recognize(ctx, bhashini.ASRRequest{
		AudioContent:   audioContent,
		SourceLanguage: sourceLanguage,
	})
	if err != nil {
		s.logger.Warn("Speech recognition unavailable, using placeholder",
			"language", sourceLanguage, "error", err)
		return voiceFallbackText, 0, nil
	}
	return resp.TranscribedText, resp.Confidence, nil
}

// Translate converts text between languages. On failure it returns the
// original text untranslated and no error.
func (s *BhashiniService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang || text == "" {
		return text, nil
	}
	resp, err := s.provider.Translate(ctx, bhashini.TranslateRequest{
		Text:           text,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	})
	if err != nil {
		s.logger.Warn("Translation unavailable, returning original text",
			"source", sourceLang, "target", targetLang, "error", err)
		return text, nil
	}
	return resp.TranslatedText, nil
}

// TextToSpeech synthesizes base64 audio for the given text. Unlike the other
// bridge calls there is no text fallback, so errors propagate.
func (s *BhashiniService) TextToSpeech(ctx context.Context, text, language, voice string) (string, error) {
	resp, err := s.provider.Synthesize(ctx, bhashini.TTSRequest{
		Text:     text,
		Language: language,
		Voice:    voice,
	})
	if err != nil {
		s.logger.Error("Speech synthesis failed", "language", language, "error", err)
		return "", err
	}
	return resp.AudioContent, nil
}

// ExtractText runs OCR on a base64 image, returning the text and the
// reader's confidence. Errors propagate so the caller can tell the user the
// image could not be read.
func (s *BhashiniService) ExtractText(ctx context.Context, imageContent, sourceLanguage string) (string, float64, error) {
	resp, err := s.provider.ExtractText(ctx, bhashini.OCRRequest{
		ImageContent:   imageContent,
		SourceLanguage: sourceLanguage,
	})
	if err != nil {
		s.logger.Error("Text extraction failed", "language", sourceLanguage, "error", err)
		return "", 0, err
	}
	return resp.ExtractedText, resp.Confidence, nil
}

// CompleteVoiceFlow answers a spoken question end to end: recognize the
// audio, translate the question to English, generate the answer, translate
// the answer back to the speaker's language, then synthesize that answer.
// Recognition failure yields a successful degraded result carrying an
// explanation instead of an error; later stages degrade independently.
func (s *BhashiniService) CompleteVoiceFlow(ctx context.Context, audioContent, sourceLang, targetLang string) *bhashini.VoiceFlowResult {
	asr, err := s.provider.Recognize(ctx, bhashini.ASRRequest{
		AudioContent:   audioContent,
		SourceLanguage: sourceLang,
	})
	if err != nil {
		s.logger.Warn("Voice flow degraded at recognition", "error", err)
		return &bhashini.VoiceFlowResult{
			Success:        true,
			RecognizedText: voiceFallbackText,
			Message:        voiceFlowFallbackMessage,
		}
	}

	if sourceLang == "" {
		sourceLang = "en"
	}
	if targetLang == "" {
		targetLang = sourceLang
	}

	result := &bhashini.VoiceFlowResult{
		Success:            true,
		RecognizedText:     asr.TranscribedText,
		RecognizedLanguage: sourceLang,
	}

	question := asr.TranscribedText
	if sourceLang != "en" {
		question, _ = s.Translate(ctx, question, sourceLang, "en")
	}
	result.QuestionInEnglish = question

	answer := s.answer(ctx, question)
	result.AnswerInEnglish = answer

	translatedAnswer := answer
	if targetLang != "en" {
		translatedAnswer, _ = s.Translate(ctx, answer, "en", targetLang)
	}
	result.AnswerTranslated = translatedAnswer
	result.AnswerLanguage = targetLang

	if audio, err := s.TextToSpeech(ctx, translatedAnswer, targetLang, ""); err == nil {
		result.AnswerAudioContent = audio
	}
	return result
}

func (s *BhashiniService) answer(ctx context.Context, question string) string {
	if s.answerer == nil {
		return FallbackReply(question)
	}
	return s.answerer.Answer(ctx, question)
}
