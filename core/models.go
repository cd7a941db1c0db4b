package core

// Hash field names used when a User is stored as a hash object.
const (
	FieldID       = "id"
	FieldUsername = "username"
	FieldEmail    = "email"
)

// User is the record kept for an account. It is stored as a hash object keyed
// by a lookup key derived from the username; the password is kept elsewhere.
type User struct {
	Key        string           // Lookup key derived from Username; not stored as a field
	ID         string           // Globally unique identifier assigned at creation
	Username   string
	Email      string
	Attributes map[string]Value // Optional extra fields stored alongside the built-in ones
}

// Fields returns the hash representation of the user. Attributes never
// override the built-in fields.
func (u *User) Fields() map[string]Value {
	fields := make(map[string]Value, len(u.Attributes)+3)
	for k, v := range u.Attributes {
		fields[k] = v
	}
	fields[FieldID] = String(u.ID)
	fields[FieldUsername] = String(u.Username)
	fields[FieldEmail] = String(u.Email)
	return fields
}

// UserFromFields rebuilds a User from a stored hash. Scalars that were decoded
// into numbers or booleans are rendered back to text for the built-in fields.
func UserFromFields(key string, fields map[string]Value) *User {
	u := &User{Key: key}
	for k, v := range fields {
		switch k {
		case FieldID:
			u.ID = v.Text()
		case FieldUsername:
			u.Username = v.Text()
		case FieldEmail:
			u.Email = v.Text()
		default:
			if u.Attributes == nil {
				u.Attributes = make(map[string]Value)
			}
			u.Attributes[k] = v
		}
	}
	return u
}

// IsReservedField reports whether name is one of the built-in user fields.
func IsReservedField(name string) bool {
	return name == FieldID || name == FieldUsername || name == FieldEmail
}
