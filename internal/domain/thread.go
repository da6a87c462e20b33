package domain

// Thread is a derived view: a root message plus its replies ordered by
// creation time ascending. It is never persisted as its own entity.
type Thread struct {
	Root    *Message
	Replies []*Message
}

// Participants is the union of the root sender, every recipient of the root
// and the sender of every reply. Recomputed on each call, never cached.
func (t *Thread) Participants() map[UserId]struct{} {
	participants := make(map[UserId]struct{}, len(t.Root.Recipients)+1)
	participants[t.Root.SenderId] = struct{}{}
	for _, r := range t.Root.Recipients {
		participants[r.UserId] = struct{}{}
	}
	for _, reply := range t.Replies {
		participants[reply.SenderId] = struct{}{}
	}
	return participants
}
