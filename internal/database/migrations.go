package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS study_groups (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS group_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		group_id UUID NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		approval_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(group_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		group_id UUID NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMP WITH TIME ZONE NOT NULL,
		end_time TIMESTAMP WITH TIME ZONE NOT NULL,
		meeting_link VARCHAR(500),
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (end_time >= start_time)
	)`,

	`CREATE TABLE IF NOT EXISTS session_invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sender_id UUID REFERENCES users(id) ON DELETE SET NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		message TEXT NOT NULL DEFAULT '',
		invited_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		responded_at TIMESTAMP WITH TIME ZONE,
		UNIQUE(session_id, recipient_id)
	)`,

	`CREATE TABLE IF NOT EXISTS session_participants (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(session_id, user_id)
	)`,

	// Notifications deliberately do not cascade from sessions: history
	// must survive session archival and deletion.
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		session_id UUID REFERENCES sessions(id) ON DELETE SET NULL,
		type VARCHAR(30) NOT NULL,
		message TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_group_id_start_time ON sessions(group_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_created_by ON sessions(created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_session_invitations_recipient_id ON session_invitations(recipient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_session_invitations_session_id ON session_invitations(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_session_participants_session_id ON session_participants(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications(recipient_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_session_type ON notifications(session_id, type)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
