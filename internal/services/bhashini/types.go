// File: internal/services/bhashini/types.go
package bhashini

// Wire types for the Bhashini language gateway. Field names follow the
// gateway's JSON contract exactly.

type ASRRequest struct {
	AudioContent   string `json:"audio_content"`
	SourceLanguage string `json:"source_language"`
}

type ASRResponse struct {
	TranscribedText string  `json:"transcribed_text"`
	Confidence      float64 `json:"confidence,omitempty"`
}

type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_lang"`
	TargetLanguage string `json:"target_lang"`
}

type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

type TTSRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice,omitempty"`
}

type TTSResponse struct {
	AudioContent string `json:"audio_content"`
}

type OCRRequest struct {
	ImageContent   string `json:"image_content"`
	SourceLanguage string `json:"source_language"`
}

type OCRResponse struct {
	ExtractedText string  `json:"extracted_text"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// VoiceFlowResult is the combined outcome of one spoken question: the
// transcript, its English form, the generated answer, the answer translated
// back to the speaker's language, and the synthesized answer audio.
type VoiceFlowResult struct {
	Success            bool   `json:"success"`
	RecognizedText     string `json:"recognizedText"`
	RecognizedLanguage string `json:"recognizedLanguage,omitempty"`
	QuestionInEnglish  string `json:"questionInEnglish,omitempty"`
	AnswerInEnglish    string `json:"answerInEnglish,omitempty"`
	AnswerTranslated   string `json:"answerTranslated,omitempty"`
	AnswerLanguage     string `json:"answerLanguage,omitempty"`
	AnswerAudioContent string `json:"answerAudioContent,omitempty"`
	Message            string `json:"message,omitempty"`
}
