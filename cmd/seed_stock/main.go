// seed_stock carga saldos iniciales de inventario desde un CSV separado por ';'
// (product_id;warehouse_id;quantity). Cada línea se registra como un ajuste de entrada,
// de modo que el saldo queda respaldado por un movimiento en el libro.
//
// Uso: go run ./cmd/seed_stock [-latin1] ruta/saldos.csv
// Con -latin1 el archivo se decodifica como ISO-8859-1 (exportaciones de Excel).
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const seedReason = "saldo inicial"

type seedLine struct {
	line        int
	productID   string
	warehouseID string
	quantity    decimal.Decimal
}

func main() {
	latin1 := flag.Bool("latin1", false, "decodificar el CSV como ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: seed_stock [-latin1] saldos.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if *latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	lines, err := readSeedLines(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	engine := inventory.NewRegisterMovementUseCase(postgres.NewTxRunner(pool, cfg.DB.LockTimeout()), nil, log)
	adjust := inventory.NewAdjustmentUseCase(engine)

	failed := 0
	for _, l := range lines {
		_, err := adjust.Adjust(ctx, inventory.AdjustInput{
			ProductID:   l.productID,
			WarehouseID: l.warehouseID,
			Direction:   inventory.AdjustEntry,
			Quantity:    l.quantity,
			Reason:      seedReason,
		})
		if err != nil {
			failed++
			log.Error().Err(err).Int("linea", l.line).Str("product_id", l.productID).Msg("saldo no registrado")
		}
	}

	fmt.Printf("Procesadas %d líneas: %d registradas, %d con error\n", len(lines), len(lines)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// readSeedLines lee el CSV; omite la cabecera si la primera columna es "product_id".
// Acepta coma como separador decimal.
func readSeedLines(r io.Reader) ([]seedLine, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var out []seedLine
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "product_id") {
			continue
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[2]), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("línea %d: cantidad inválida %q", n, rec[2])
		}
		out = append(out, seedLine{
			line:        n,
			productID:   strings.TrimSpace(rec[0]),
			warehouseID: strings.TrimSpace(rec[1]),
			quantity:    qty,
		})
	}
	return out, nil
}
