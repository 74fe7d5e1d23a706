package user

// User is an account that owns connections, caches, and manual events.
type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
}
