package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteSession inserts a session with its ops and node snapshot in one
// transaction. A session id that already exists is an error; sessions are
// append-only.
func (s *Store) WriteSession(ctx context.Context, sess Session, ops []Op, nodes []NodeRecord) error {
	symbols, err := marshalSymbols(sess.Types, sess.Entities)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, name, graph, entity, symbols, schema_hash, tool_version, fingerprint, node_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.Name,
		sess.Graph,
		sess.Entity,
		symbols,
		sess.SchemaHash,
		sess.ToolVersion,
		sess.Fingerprint,
		sess.NodeCount,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	for _, op := range ops {
		if err := writeOp(ctx, tx, sess.ID, op); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		if err := writeNode(ctx, tx, sess.ID, n); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session: commit: %w", err)
	}
	return nil
}

func writeOp(ctx context.Context, tx *sql.Tx, session string, op Op) error {
	inputs, err := marshalIDs(op.Inputs)
	if err != nil {
		return fmt.Errorf("write op %d: %w", op.Seq, err)
	}
	attrs, err := marshalAttrs(op.Attrs)
	if err != nil {
		return fmt.Errorf("write op %d: %w", op.Seq, err)
	}
	flags, err := marshalFlags(op.Flags)
	if err != nil {
		return fmt.Errorf("write op %d: %w", op.Seq, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ops
		(session_id, seq, op, kind, node, value, block, inputs, attrs, flags, mode, idx, name, throws, result, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session,
		op.Seq,
		op.Type,
		op.Kind,
		op.Node,
		op.Value,
		op.Block,
		inputs,
		attrs,
		flags,
		op.Mode,
		op.Index,
		op.Name,
		op.Throws,
		op.Result,
		op.Error,
	)
	if err != nil {
		return fmt.Errorf("write op %d: %w", op.Seq, err)
	}
	return nil
}

func writeNode(ctx context.Context, tx *sql.Tx, session string, n NodeRecord) error {
	inputs, err := marshalIDs(n.Inputs)
	if err != nil {
		return fmt.Errorf("write node %d: %w", n.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO nodes (session_id, id, kind, block, mode, pin, inputs, encoding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session, n.ID, n.Kind, n.Block, n.Mode, n.Pin, inputs, n.Encoding,
	)
	if err != nil {
		return fmt.Errorf("write node %d: %w", n.ID, err)
	}
	return nil
}

// DeleteSession removes a session with its ops and snapshot.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}
