package domain

// Speaker はチャットの発話者です。
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ChatMessage はトランスクリプトの1エントリです。
type ChatMessage struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcript は追記専用の会話履歴です。
// ストリーミング中は末尾のアシスタント発話のみがその場で伸長します。
type Transcript []ChatMessage

// Clone は履歴のコピーを返します。
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Last は末尾のエントリを返します。
func (t Transcript) Last() (ChatMessage, bool) {
	if len(t) == 0 {
		return ChatMessage{}, false
	}
	return t[len(t)-1], true
}
