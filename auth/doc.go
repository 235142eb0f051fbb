// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, access tokens and ID generation.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err := auth.CheckPassword(hash, attempt) // ErrInvalidCredentials on mismatch

# Access Tokens

Access tokens are HS256 JWTs carrying the user ID (subject), username and role:

	tm, err := auth.NewTokenManager(secret, 7*24*time.Hour)
	token, expiresAt, err := tm.Issue(userID, username, role)
	claims, err := tm.Verify(token) // ErrInvalidToken when tampered or expired

Clients send them as "Authorization: Bearer <token>".

# Roles

	viewer   predict and view metrics
	analyst  also upload datasets and train models
	admin    everything, including user management

RoleAllowed always admits admins.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
