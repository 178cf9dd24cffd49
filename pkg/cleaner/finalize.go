package cleaner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/classifier"
	"github.com/David-Botos/form-ingress/pkg/demographics"
	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/normalizer"
)

// FinalizeTable runs the last cleaning stage on a pruned table: pack, payment,
// demographic and email columns are derived, names and countries are tidied
// and columns are put in reporting order. Ages are computed against now.
func (c *DataCleaner) FinalizeTable(ctx context.Context, table *model.Table, now time.Time) (*model.Table, []model.CleaningOperation, error) {
	if table == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	out := table.Clone()
	roles := normalizer.DetectRoles(out.Columns)

	if roles.Offer != "" {
		out.AddColumn(model.ColPackType)
		out.AddColumn(model.ColPackPrice)
		for _, row := range out.Rows {
			pack := classifier.ClassifyPack(model.String(row[roles.Offer]))
			row[model.ColPackType] = string(pack.Category)
			row[model.ColPackPrice] = model.IntValue(pack.Price)
		}
		c.logger.Info("Derived pack columns", zap.String("source", roles.Offer))
	}

	if roles.Payment != "" {
		out.AddColumn(model.ColPaymentMethod)
		for _, row := range out.Rows {
			row[model.ColPaymentMethod] = string(classifier.ClassifyPayment(model.String(row[roles.Payment])))
		}
		c.logger.Info("Derived payment column", zap.String("source", roles.Payment))
	}

	if roles.BirthDate != "" {
		out.AddColumn(model.ColAge)
		out.AddColumn(model.ColAgeBracket)
		out.AddColumn(model.ColGeneration)
		cleared := 0
		for _, row := range out.Rows {
			d := demographics.Derive(row[roles.BirthDate], now)
			if d.Age == nil && !model.IsNull(row[roles.BirthDate]) {
				cleared++
			}
			row[model.ColAge] = model.IntValue(d.Age)
			row[model.ColAgeBracket] = optional(d.Bracket)
			row[model.ColGeneration] = optional(d.Generation)
		}
		c.logger.Info("Derived demographic columns",
			zap.String("source", roles.BirthDate),
			zap.Int("unset_ages", cleared))
	}

	if roles.Email != "" {
		out.AddColumn(model.ColEmailDomain)
		out.AddColumn(model.ColEmailType)
		for _, row := range out.Rows {
			domain, kind := classifier.ClassifyEmail(model.String(row[roles.Email]))
			row[model.ColEmailDomain] = optional(domain)
			row[model.ColEmailType] = kind
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var operations []model.CleaningOperation
	nameCleaner := valueCleaner{operation: "name_cleanup", reason: "title_case", clean: always(CleanName)}
	countryCleaner := valueCleaner{operation: "country_correction", reason: "final_country_name", clean: always(FinalizeCountry)}
	for _, col := range []string{roles.LastName, roles.FirstName} {
		if col != "" {
			operations = append(operations, c.cleanColumn(out, col, nameCleaner)...)
		}
	}
	if roles.Country != "" {
		operations = append(operations, c.cleanColumn(out, roles.Country, countryCleaner)...)
	}

	out = out.Select(FinalColumnOrder(roles, out.Columns))

	if err := c.record(ctx, operations); err != nil {
		return out, operations, err
	}
	return out, operations, nil
}

// FinalColumnOrder lists columns in reporting order. Columns missing from
// present are skipped; present columns outside the reporting set go last.
func FinalColumnOrder(roles model.Roles, present []string) []string {
	preferred := []string{
		roles.Timestamp,
		roles.LastName, roles.FirstName,
		model.ColAge, model.ColAgeBracket, model.ColGeneration,
		roles.BirthDate, roles.Country,
		roles.Email, model.ColEmailDomain, model.ColEmailType,
		roles.Phone,
		model.ColPackType, model.ColPackPrice, roles.Offer,
		model.ColPaymentMethod, roles.Payment,
		roles.Comment,
	}

	exists := make(map[string]bool, len(present))
	for _, col := range present {
		exists[col] = true
	}

	used := make(map[string]bool, len(present))
	order := make([]string, 0, len(present))
	for _, col := range preferred {
		if col == "" || !exists[col] || used[col] {
			continue
		}
		order = append(order, col)
		used[col] = true
	}
	for _, col := range present {
		if !used[col] {
			order = append(order, col)
		}
	}
	return order
}

func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
