package user

// User represents a user entity in the system.
type User struct {
	ID        string // ID is the document id, unique and immutable after creation
	FirstName string // FirstName is the user's given name
	LastName  string // LastName is the user's family name
	Email     string // Email is a syntactically valid email address
}

// Fields holds the content fields of a user, everything except the id.
// Updates always rewrite all of them.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
}

// Fields returns the content fields of u.
func (u User) Fields() Fields {
	return Fields{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// WithID builds a User from its content fields and id.
func (f Fields) WithID(id string) User {
	return User{ID: id, FirstName: f.FirstName, LastName: f.LastName, Email: f.Email}
}
