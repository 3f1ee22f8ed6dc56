package repository

import (
	"context"
	"database/sql"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
)

var checkoutEntryColumns = []string{"id", "entry_uid", "record_id", "copy_id", "checkout_date", "due_date", "fine"}

// GetMember loads the member together with its checkout record and entries.
func (r *repository) GetMember(ctx context.Context, id int64) (model.Member, error) {
	query, args, err := r.qb.Select("id", "name", "role").
		From(membersTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	var member model.Member
	if err := sqlx.GetContext(ctx, r.ext(ctx), &member, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrMemberNotFound
		}
		r.log.Error("GetMember", zap.String("q", query), zap.Any("args", args))
		return model.Member{}, errors.Wrap(err, "GetMember")
	}

	record, err := r.getCheckoutRecord(ctx, member.ID)
	if err != nil {
		return model.Member{}, err
	}
	member.Record = record
	return member, nil
}

func (r *repository) getCheckoutRecord(ctx context.Context, memberID int64) (model.CheckoutRecord, error) {
	query, args, err := r.qb.Select("id", "member_id").
		From(checkoutRecordsTableName).
		Where(sq.Eq{"member_id": memberID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.CheckoutRecord{}, err
	}

	var record model.CheckoutRecord
	if err := sqlx.GetContext(ctx, r.ext(ctx), &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// created on the next update
			return model.CheckoutRecord{MemberID: memberID, Entries: []model.CheckoutEntry{}}, nil
		}
		return model.CheckoutRecord{}, errors.Wrap(err, "getCheckoutRecord")
	}

	query, args, err = r.qb.Select(checkoutEntryColumns...).
		From(checkoutEntriesTableName).
		Where(sq.Eq{"record_id": record.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return model.CheckoutRecord{}, err
	}
	entries := make([]model.CheckoutEntry, 0)
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &entries, query, args...); err != nil {
		return model.CheckoutRecord{}, errors.Wrap(err, "select checkout entries")
	}
	record.Entries = entries
	return record, nil
}

// AddMember inserts the member and an empty checkout record.
func (r *repository) AddMember(ctx context.Context, member model.Member) (model.Member, error) {
	member.Record.Entries = slices.Clone(member.Record.Entries)
	query, args, err := r.qb.Insert(membersTableName).
		Columns("name", "role").
		Values(member.Name, member.Role).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	if err := sqlx.GetContext(ctx, r.ext(ctx), &member.ID, query, args...); err != nil {
		r.log.Error("AddMember", zap.String("q", query), zap.Any("args", args))
		return model.Member{}, errors.Wrap(err, "AddMember")
	}

	member.Record = model.CheckoutRecord{MemberID: member.ID, Entries: member.Record.Entries}
	if err := r.saveCheckoutRecord(ctx, &member.Record); err != nil {
		return model.Member{}, err
	}
	return member, nil
}

// UpdateMember persists the member fields, inserts new ledger entries (zero
// ID) and updates fines of the existing ones.
func (r *repository) UpdateMember(ctx context.Context, member model.Member) (model.Member, error) {
	member.Record.Entries = slices.Clone(member.Record.Entries)
	query, args, err := r.qb.Update(membersTableName).
		Set("name", member.Name).
		Set("role", member.Role).
		Where(sq.Eq{"id": member.ID}).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	res, err := r.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return model.Member{}, errors.Wrap(err, "UpdateMember")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Member{}, errs.ErrMemberNotFound
	}

	member.Record.MemberID = member.ID
	if err := r.saveCheckoutRecord(ctx, &member.Record); err != nil {
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) saveCheckoutRecord(ctx context.Context, record *model.CheckoutRecord) error {
	if record.ID == 0 {
		query, args, err := r.qb.Insert(checkoutRecordsTableName).
			Columns("member_id").
			Values(record.MemberID).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		if err := sqlx.GetContext(ctx, r.ext(ctx), &record.ID, query, args...); err != nil {
			return errors.Wrap(err, "insert checkout record")
		}
	}
	if record.Entries == nil {
		record.Entries = []model.CheckoutEntry{}
	}

	for i := range record.Entries {
		entry := &record.Entries[i]
		entry.RecordID = record.ID
		if entry.ID != 0 {
			if err := r.updateCheckoutEntry(ctx, *entry); err != nil {
				return err
			}
			continue
		}
		if entry.EntryUid == uuid.Nil {
			entry.EntryUid = uuid.New()
		}
		query, args, err := r.qb.Insert(checkoutEntriesTableName).
			Columns(checkoutEntryColumns[1:]...).
			Values(entry.EntryUid, entry.RecordID, entry.CopyID, entry.CheckoutDate, entry.DueDate, entry.Fine).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		if err := sqlx.GetContext(ctx, r.ext(ctx), &entry.ID, query, args...); err != nil {
			r.log.Error("insert checkout entry", zap.String("q", query), zap.Any("args", args))
			return errors.Wrap(err, "insert checkout entry")
		}
	}
	return nil
}

func (r *repository) updateCheckoutEntry(ctx context.Context, entry model.CheckoutEntry) error {
	query, args, err := r.qb.Update(checkoutEntriesTableName).
		Set("fine", entry.Fine).
		Where(sq.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "update checkout entry")
	}
	return nil
}
