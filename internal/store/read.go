package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, name, graph, entity, symbols, schema_hash, tool_version, fingerprint, node_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess    Session
		symbols string
	)
	err := row.Scan(&sess.ID, &sess.Name, &sess.Graph, &sess.Entity, &symbols,
		&sess.SchemaHash, &sess.ToolVersion, &sess.Fingerprint, &sess.NodeCount)
	if err != nil {
		return Session{}, err
	}
	if sess.Types, sess.Entities, err = unmarshalSymbols(symbols); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ReadSession returns one session.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every session in creation order.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

const opColumns = `seq, op, kind, node, value, block, inputs, attrs, flags, mode, idx, name, throws, result, error`

// ReadOps returns a session's ops ordered by seq.
//
// Returns an empty slice (not nil) if the session has no ops.
func (s *Store) ReadOps(ctx context.Context, session string) ([]Op, error) {
	return s.queryOps(ctx, `SELECT `+opColumns+` FROM ops WHERE session_id = ? ORDER BY seq ASC`, session)
}

// FailedOps returns the ops of a session whose call returned an error.
func (s *Store) FailedOps(ctx context.Context, session string) ([]Op, error) {
	return s.queryOps(ctx, `SELECT `+opColumns+` FROM ops WHERE session_id = ? AND error != '' ORDER BY seq ASC`, session)
}

func (s *Store) queryOps(ctx context.Context, query, session string) ([]Op, error) {
	rows, err := s.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("query ops: %w", err)
	}
	defer rows.Close()

	ops := []Op{}
	for rows.Next() {
		op, err := scanOp(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

func scanOp(row scanner) (Op, error) {
	var (
		op                   Op
		inputs, attrs, flags string
	)
	err := row.Scan(&op.Seq, &op.Type, &op.Kind, &op.Node, &op.Value, &op.Block,
		&inputs, &attrs, &flags, &op.Mode, &op.Index, &op.Name, &op.Throws, &op.Result, &op.Error)
	if err != nil {
		return Op{}, fmt.Errorf("scan op: %w", err)
	}
	if op.Inputs, err = unmarshalIDs(inputs); err != nil {
		return Op{}, fmt.Errorf("op %d: %w", op.Seq, err)
	}
	if op.Attrs, err = unmarshalAttrs(attrs); err != nil {
		return Op{}, fmt.Errorf("op %d: %w", op.Seq, err)
	}
	if op.Flags, err = unmarshalFlags(flags); err != nil {
		return Op{}, fmt.Errorf("op %d: %w", op.Seq, err)
	}
	return op, nil
}

// ReadNodes returns a session's node snapshot ordered by node id.
//
// Returns an empty slice (not nil) if the session has no snapshot.
func (s *Store) ReadNodes(ctx context.Context, session string) ([]NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, block, mode, pin, inputs, encoding
		FROM nodes
		WHERE session_id = ?
		ORDER BY id ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []NodeRecord{}
	for rows.Next() {
		var (
			n      NodeRecord
			inputs string
		)
		if err := rows.Scan(&n.ID, &n.Kind, &n.Block, &n.Mode, &n.Pin, &inputs, &n.Encoding); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if n.Inputs, err = unmarshalIDs(inputs); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}
