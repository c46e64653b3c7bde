package handler

type ContextKey string

var (
	RoleCtxKey    ContextKey = "role"
	SubCtxKey     ContextKey = "sub"
	MyInfoCtx     ContextKey = "myInfo"
	EntryCtx      ContextKey = "entry"
	EntryOwnerCtx ContextKey = "entryOwner"
	DepartmentCtx ContextKey = "department"
)
