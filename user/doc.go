// Package user implements the user record model on top of the accessor.
//
// An account is kept in two places: the password hash is a scalar in the
// secrets namespace and the user record is a hash in the records namespace.
// Both live under the same lookup key, derived from the username by a
// KeyDeriver. Creation writes the secret first and deletes it again if the
// record cannot be written, so a secret never outlives a failed creation.
//
// The model only reports success flags and absence. Causes are logged by the
// accessor and by the model itself.
package user
