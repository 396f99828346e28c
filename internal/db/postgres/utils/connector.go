// Copyright 2025 Greenmask
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

type TxFunc func(ctx context.Context, tx pgx.Tx) error

type PGConnector interface {
	// WithTx runs fn in a transaction that is committed when fn succeeds and rolled back otherwise
	WithTx(ctx context.Context, fn TxFunc) error
	// WithRollbackTx runs fn in a transaction that is always rolled back. Transactional DDL makes
	// every statement issued by fn validated by the server without any durable effect.
	WithRollbackTx(ctx context.Context, fn TxFunc) error
	GetConn() *pgx.Conn
}

// PGConn is a wrapper around pgx.Conn that allows to wrap logic in transactions
type PGConn struct {
	con *pgx.Conn
}

func NewPGConn(con *pgx.Conn) *PGConn {
	return &PGConn{
		con: con,
	}
}

// Connect opens a single session and checks it is alive
func Connect(ctx context.Context, dsn string) (*PGConn, error) {
	con, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err = con.Ping(ctx); err != nil {
		_ = con.Close(ctx)
		return nil, fmt.Errorf("cannot ping database: %w", err)
	}
	return NewPGConn(con), nil
}

func (p *PGConn) GetConn() *pgx.Conn {
	return p.con
}

func (p *PGConn) Close(ctx context.Context) error {
	return p.con.Close(ctx)
}

func (p *PGConn) WithTx(ctx context.Context, fn TxFunc) error {
	tx, err := p.con.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		Rollback(ctx, tx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cannot commit transaction: %w", err)
	}
	return nil
}

func (p *PGConn) WithRollbackTx(ctx context.Context, fn TxFunc) error {
	tx, err := p.con.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}
	fnErr := fn(ctx, tx)
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		if fnErr != nil {
			log.Warn().Err(err).Msg("cannot rollback transaction")
			return fnErr
		}
		return fmt.Errorf("cannot rollback transaction: %w", err)
	}
	return fnErr
}

// Rollback can be called any number of times, including after commit
func Rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Warn().
			Err(err).
			Msg("cannot rollback transaction")
	}
}
