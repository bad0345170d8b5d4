package notify

import "sync"

// Message is a delivered notification.
type Message struct {
	PlayerID  string
	Text      string
	Broadcast bool
}

// Recorder is a Gateway that keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(playerID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{PlayerID: playerID, Text: text})
}

func (r *Recorder) NotifyAll(playerIDs []string, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range playerIDs {
		r.messages = append(r.messages, Message{PlayerID: id, Text: text, Broadcast: true})
	}
}

// Messages returns a copy of everything delivered so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Texts returns the texts delivered to one player.
func (r *Recorder) Texts(playerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		if m.PlayerID == playerID {
			out = append(out, m.Text)
		}
	}
	return out
}

// Reset clears recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
