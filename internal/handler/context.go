package handler

type ContextKey string

var (
	SubCtxKey     ContextKey = "sub"
	SessionCtxKey ContextKey = "session"
	MyInfoCtx     ContextKey = "myInfo"
)
