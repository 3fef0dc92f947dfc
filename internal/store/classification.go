package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/classify"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

const settingReturnCharge = "return_charge"

type classificationStore struct {
	*MYSQLStore
}

// Classification returns an object implementing Classification interface
func (ms *MYSQLStore) Classification() dependency.Classification {
	return &classificationStore{
		MYSQLStore: ms,
	}
}

type reportSetting struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

// ClassificationConfig reads the status groups and the return charge.
func (ms *classificationStore) ClassificationConfig(ctx context.Context) (*entity.ClassificationConfig, error) {
	query := `SELECT status, status_group FROM classification_status`
	statuses, err := QueryListNamed[entity.ClassificationStatus](ctx, ms.DB(), query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't get classification statuses: %w", err)
	}

	cfg := &entity.ClassificationConfig{
		Converted:       entity.NewStatusSet(),
		Delivered:       entity.NewStatusSet(),
		ReturnedFull:    entity.NewStatusSet(),
		ReturnedPartial: entity.NewStatusSet(),
	}
	for _, s := range statuses {
		switch s.Group {
		case entity.GroupConverted:
			cfg.Converted[s.Status] = struct{}{}
		case entity.GroupDelivered:
			cfg.Delivered[s.Status] = struct{}{}
		case entity.GroupReturnedFull:
			cfg.ReturnedFull[s.Status] = struct{}{}
		case entity.GroupReturnedPartial:
			cfg.ReturnedPartial[s.Status] = struct{}{}
		}
	}

	query = `SELECT name, value FROM report_setting WHERE name = :name`
	rs, err := QueryNamedOne[reportSetting](ctx, ms.DB(), query, map[string]any{"name": settingReturnCharge})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cfg.ReturnCharge = decimal.Zero
	case err != nil:
		return nil, fmt.Errorf("can't get return charge: %w", err)
	default:
		cfg.ReturnCharge, err = decimal.NewFromString(rs.Value)
		if err != nil {
			return nil, fmt.Errorf("bad return charge %q: %w", rs.Value, err)
		}
	}
	return cfg, nil
}

// SetClassificationConfig replaces every status group and the return charge.
// Statuses are stored without the source prefix.
func (ms *classificationStore) SetClassificationConfig(ctx context.Context, ci *entity.ClassificationInsert) error {
	groups := []struct {
		group    entity.ClassificationGroup
		statuses []string
	}{
		{entity.GroupConverted, ci.Converted},
		{entity.GroupDelivered, ci.Delivered},
		{entity.GroupReturnedFull, ci.ReturnedFull},
		{entity.GroupReturnedPartial, ci.ReturnedPartial},
	}

	rows := make([]map[string]any, 0)
	seen := make(map[entity.ClassificationStatus]struct{})
	for _, g := range groups {
		for _, st := range g.statuses {
			cs := entity.ClassificationStatus{Status: classify.StripPrefix(st), Group: g.group}
			if cs.Status == "" {
				continue
			}
			if _, ok := seen[cs]; ok {
				continue
			}
			seen[cs] = struct{}{}
			rows = append(rows, map[string]any{
				"status":       cs.Status,
				"status_group": string(cs.Group),
			})
		}
	}

	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		if err := ExecNamed(ctx, rep.DB(), `DELETE FROM classification_status`, map[string]any{}); err != nil {
			return fmt.Errorf("can't clear classification statuses: %w", err)
		}
		if err := BulkInsert(ctx, rep.DB(), "classification_status", rows); err != nil {
			return fmt.Errorf("can't insert classification statuses: %w", err)
		}
		query := `
			INSERT INTO report_setting (name, value) VALUES (:name, :value)
			ON DUPLICATE KEY UPDATE value = VALUES(value)`
		err := ExecNamed(ctx, rep.DB(), query, map[string]any{
			"name":  settingReturnCharge,
			"value": ci.ReturnCharge.Round(2).String(),
		})
		if err != nil {
			return fmt.Errorf("can't set return charge: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("can't set classification config: %w", err)
	}
	return nil
}
