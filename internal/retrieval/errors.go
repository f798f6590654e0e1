package retrieval

import "fmt"

// RemoteTimeout reports that a reranker, LLM, or embedder call exceeded
// its deadline. The retriever recovers locally wherever a fallback
// exists; this type exists so callers can still distinguish the cause
// via errors.Is/As when they need to.
type RemoteTimeout struct {
	Call string
	Err  error
}

func (e *RemoteTimeout) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Call, e.Err)
}

func (e *RemoteTimeout) Unwrap() error { return e.Err }

// RemoteFailure reports a non-timeout failure from a remote collaborator
// (reranker, embedder).
type RemoteFailure struct {
	Call string
	Err  error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Call, e.Err)
}

func (e *RemoteFailure) Unwrap() error { return e.Err }
