package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// columns encabezado esperado del CSV del catálogo (en cualquier orden).
var columns = []string{
	"id", "name", "plan_type", "price_monthly", "currency",
	"max_users", "max_products", "max_orders", "max_branches", "features", "is_active",
}

// readCatalog lee el CSV del catálogo. latin1 decodifica ISO-8859-1 (exportaciones de Excel).
// features va separado por "|"; un techo vacío o "unlimited" se guarda como entity.UnlimitedCeiling.
func readCatalog(r io.Reader, latin1 bool) ([]*entity.Plan, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	var plans []*entity.Plan
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(c string) string { return strings.TrimSpace(rec[idx[c]]) }

		p, err := parsePlan(get)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("línea %d: id %q repetido", line, p.ID)
		}
		seen[p.ID] = true
		plans = append(plans, p)
	}
	if len(plans) == 0 {
		return nil, errors.New("el catálogo no tiene planes")
	}
	return plans, nil
}

func parsePlan(get func(string) string) (*entity.Plan, error) {
	p := &entity.Plan{ID: get("id"), Name: get("name"), Currency: strings.ToUpper(get("currency"))}
	if p.ID == "" || p.Name == "" {
		return nil, errors.New("id y name son obligatorios")
	}
	if p.Currency == "" {
		p.Currency = "COP"
	}

	var err error
	if p.PlanType, err = entity.ParsePlanType(get("plan_type")); err != nil {
		return nil, err
	}
	if p.PriceMonthly, err = decimal.NewFromString(orDefault(get("price_monthly"), "0")); err != nil {
		return nil, fmt.Errorf("price_monthly: %w", err)
	}
	if p.PriceMonthly.IsNegative() {
		return nil, errors.New("price_monthly no puede ser negativo")
	}

	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"max_users", &p.MaxUsers},
		{"max_products", &p.MaxProducts},
		{"max_orders", &p.MaxOrders},
		{"max_branches", &p.MaxBranches},
	} {
		if *c.dst, err = parseCeiling(get(c.name)); err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
	}

	for _, f := range strings.Split(get("features"), "|") {
		if f = strings.TrimSpace(f); f != "" {
			p.Features = append(p.Features, f)
		}
	}
	sort.Strings(p.Features)

	if p.IsActive, err = strconv.ParseBool(orDefault(get("is_active"), "true")); err != nil {
		return nil, fmt.Errorf("is_active: %w", err)
	}
	return p, nil
}

func parseCeiling(s string) (int, error) {
	if s == "" || strings.EqualFold(s, "unlimited") {
		return entity.UnlimitedCeiling, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("no puede ser negativo")
	}
	return n, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// writeSQL escribe un INSERT ... ON CONFLICT por plan, idempotente.
func writeSQL(w io.Writer, plans []*entity.Plan) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de planes de suscripción\n")
	b.WriteString("-- Generado por cmd/seed_plans\n\n")
	for _, p := range plans {
		features := make([]string, len(p.Features))
		for i, f := range p.Features {
			features[i] = "'" + escapeSQL(f) + "'"
		}
		b.WriteString("INSERT INTO subscription_plans (id, name, plan_type, price_monthly, currency, " +
			"max_users, max_products, max_orders, max_branches, features, is_active)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', %s, '%s', %d, %d, %d, %d, ARRAY[%s]::TEXT[], %t)\n",
			escapeSQL(p.ID), escapeSQL(p.Name), p.PlanType, p.PriceMonthly.StringFixed(2), escapeSQL(p.Currency),
			p.MaxUsers, p.MaxProducts, p.MaxOrders, p.MaxBranches, strings.Join(features, ", "), p.IsActive)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, plan_type = EXCLUDED.plan_type, " +
			"price_monthly = EXCLUDED.price_monthly, currency = EXCLUDED.currency, max_users = EXCLUDED.max_users, " +
			"max_products = EXCLUDED.max_products, max_orders = EXCLUDED.max_orders, " +
			"max_branches = EXCLUDED.max_branches, features = EXCLUDED.features, " +
			"is_active = EXCLUDED.is_active, updated_at = now();\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
