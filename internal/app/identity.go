package app

import "sync"

// Identity is the external "current user present?" signal. The auth
// collaborator flips it; this core only reads presence and the opaque user
// value.
type Identity struct {
	mu   sync.Mutex
	user string
}

func NewIdentity() *Identity {
	return &Identity{}
}

func (i *Identity) Set(user string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = user
}

func (i *Identity) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = ""
}

func (i *Identity) Present() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.user != ""
}

func (i *Identity) User() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.user
}
