package types

// ASRSegment is one recognized span of speech.
type ASRSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is the output of the speech-recognition collaborator.
type Transcription struct {
	Segments            []ASRSegment `json:"segments"`
	Language            string       `json:"language"`
	LanguageProbability float64      `json:"language_probability"`
}
