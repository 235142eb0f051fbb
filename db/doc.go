// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connections

Open connects to SQLite (modernc.org/sqlite, pure Go) or PostgreSQL (lib/pq):

	conn, err := db.Open("sqlite", "file:influence.db")
	conn, err := db.Open("postgres", "postgres://...")

Queries are written once with ? placeholders. The Context methods of DB and
Tx rebind them to $1, $2, ... when talking to PostgreSQL.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - users: Accounts with a role (viewer, analyst, admin)
  - dataset: Uploaded CSV files and who uploaded them
  - model_metric: Evaluation of each candidate model from the latest training run
  - prediction: Stored predictions with their input features

# Relationships

	users 1──* dataset
	users 1──* prediction
	dataset 1──* model_metric (SET NULL on delete)

User foreign keys use ON DELETE CASCADE.

# Users

UserByID, UserByUsername and InsertUser are shared by the auth middleware
and the handlers. Lookups that match nothing return ErrNotFound.
*/
package db
