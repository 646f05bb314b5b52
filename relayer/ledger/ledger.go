// Package ledger is the host chain's key-value account store. Every
// operation that mutates it runs inside Store.Atomic, so a failure at any
// step leaves no partial writes behind.
package ledger

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/db"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// Account is a ledger entry.
type Account struct {
	Key      solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Store serializes ledger transactions over a single SQLite connection.
type Store struct {
	db     *db.DB
	logger zerolog.Logger
}

// NewStore wraps an opened database.
func NewStore(database *db.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     database,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// DB returns the underlying database.
func (s *Store) DB() *db.DB { return s.db }

// Atomic runs fn in one database transaction. Any error returned by fn
// rolls back every write fn made.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	err := s.db.Client().WithContext(ctx).Transaction(func(g *gorm.DB) error {
		return fn(&Tx{db: g})
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("ledger transaction rolled back")
	}
	return err
}

// Get reads one account outside of a transaction.
func (s *Store) Get(ctx context.Context, key solana.PublicKey) (*Account, error) {
	tx := &Tx{db: s.db.Client().WithContext(ctx)}
	return tx.Get(key)
}

// Owners returns a view reporting the owner of accounts present in the
// store. It satisfies the resolver's account lookup.
func (s *Store) Owners(ctx context.Context) Owners {
	return Owners{tx: &Tx{db: s.db.Client().WithContext(ctx)}}
}

// Owners reports account owners from the ledger.
type Owners struct {
	tx *Tx
}

func (o Owners) Owner(key solana.PublicKey) (solana.PublicKey, bool) {
	acct, ok, err := o.tx.Lookup(key)
	if err != nil || !ok {
		return solana.PublicKey{}, false
	}
	return acct.Owner, true
}

// Tx is a handle on an open ledger transaction.
type Tx struct {
	db *gorm.DB
}

// DB exposes the transaction so callers can write their own records
// atomically with the ledger.
func (tx *Tx) DB() *gorm.DB { return tx.db }

// Lookup reads an account, reporting whether it exists.
func (tx *Tx) Lookup(key solana.PublicKey) (*Account, bool, error) {
	var row store.Account
	err := tx.db.Where("key = ?", key.String()).Take(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, tbrerrors.NewDatabaseError("", "failed to read account "+key.String(), err)
	}
	acct, err := fromRow(&row)
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

// Get reads an account that must exist.
func (tx *Tx) Get(key solana.PublicKey) (*Account, error) {
	acct, ok, err := tx.Lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, tbrerrors.NewAccountNotFoundError(key.String())
	}
	return acct, nil
}

// Exists reports whether key holds an account.
func (tx *Tx) Exists(key solana.PublicKey) (bool, error) {
	_, ok, err := tx.Lookup(key)
	return ok, err
}

// OwnedBy lists the accounts owned by program, ordered by key.
func (tx *Tx) OwnedBy(program solana.PublicKey) ([]*Account, error) {
	var rows []store.Account
	if err := tx.db.Where("owner = ?", program.String()).Order("key").Find(&rows).Error; err != nil {
		return nil, tbrerrors.NewDatabaseError("", "failed to list accounts of "+program.String(), err)
	}
	out := make([]*Account, 0, len(rows))
	for i := range rows {
		acct, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

// Create writes a new account. It fails if the key is already in use.
func (tx *Tx) Create(acct *Account) error {
	exists, err := tx.Exists(acct.Key)
	if err != nil {
		return err
	}
	if exists {
		return tbrerrors.NewValidationError("", fmt.Sprintf("account %s already in use", acct.Key))
	}
	row := toRow(acct)
	if err := tx.db.Create(&row).Error; err != nil {
		return tbrerrors.NewDatabaseError("", "failed to create account "+acct.Key.String(), err)
	}
	return nil
}

// Put overwrites an existing account.
func (tx *Tx) Put(acct *Account) error {
	res := tx.db.Model(&store.Account{}).Where("key = ?", acct.Key.String()).Updates(map[string]any{
		"owner":    acct.Owner.String(),
		"lamports": acct.Lamports,
		"data":     acct.Data,
	})
	if res.Error != nil {
		return tbrerrors.NewDatabaseError("", "failed to update account "+acct.Key.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return tbrerrors.NewAccountNotFoundError(acct.Key.String())
	}
	return nil
}

// Delete removes an account without moving its lamports. Callers close
// accounts through CloseAccount.
func (tx *Tx) Delete(key solana.PublicKey) error {
	res := tx.db.Where("key = ?", key.String()).Delete(&store.Account{})
	if res.Error != nil {
		return tbrerrors.NewDatabaseError("", "failed to delete account "+key.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return tbrerrors.NewAccountNotFoundError(key.String())
	}
	return nil
}

// Credit adds lamports to key, creating a system-owned account if needed.
func (tx *Tx) Credit(key solana.PublicKey, lamports uint64) error {
	acct, ok, err := tx.Lookup(key)
	if err != nil {
		return err
	}
	if !ok {
		return tx.Create(&Account{Key: key, Owner: solana.SystemProgramID, Lamports: lamports})
	}
	if acct.Lamports+lamports < acct.Lamports {
		return tbrerrors.NewValidationError("", fmt.Sprintf("lamport overflow on %s", key))
	}
	acct.Lamports += lamports
	return tx.Put(acct)
}

// Debit removes lamports from an existing account.
func (tx *Tx) Debit(key solana.PublicKey, lamports uint64) error {
	acct, err := tx.Get(key)
	if err != nil {
		return err
	}
	if acct.Lamports < lamports {
		return tbrerrors.NewValidationError("", fmt.Sprintf(
			"insufficient lamports in %s: have %d, need %d", key, acct.Lamports, lamports))
	}
	acct.Lamports -= lamports
	return tx.Put(acct)
}

// TransferLamports moves lamports between accounts.
func (tx *Tx) TransferLamports(from, to solana.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return nil
	}
	if err := tx.Debit(from, lamports); err != nil {
		return err
	}
	return tx.Credit(to, lamports)
}

// CloseAccount moves every lamport of key to dest and deletes key.
func (tx *Tx) CloseAccount(key, dest solana.PublicKey) error {
	acct, err := tx.Get(key)
	if err != nil {
		return err
	}
	if err := tx.Delete(key); err != nil {
		return err
	}
	return tx.Credit(dest, acct.Lamports)
}

func toRow(acct *Account) store.Account {
	return store.Account{
		Key:      acct.Key.String(),
		Owner:    acct.Owner.String(),
		Lamports: acct.Lamports,
		Data:     acct.Data,
	}
}

func fromRow(row *store.Account) (*Account, error) {
	key, err := solana.PublicKeyFromBase58(row.Key)
	if err != nil {
		return nil, tbrerrors.NewDatabaseError("", "corrupt account key", errors.Wrap(err, row.Key))
	}
	owner, err := solana.PublicKeyFromBase58(row.Owner)
	if err != nil {
		return nil, tbrerrors.NewDatabaseError("", "corrupt account owner", errors.Wrap(err, row.Owner))
	}
	return &Account{Key: key, Owner: owner, Lamports: row.Lamports, Data: row.Data}, nil
}
