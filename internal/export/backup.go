package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/vmihailenco/msgpack/v5"
)

// BackupVersion растёт при несовместимых изменениях формата.
const BackupVersion = 1

var ErrBackupVersion = errors.New("export: unsupported backup version")

type Backup struct {
	Version   int
	CreatedAt time.Time
	Materials []materials.Material
	Candles   []candles.Candle
}

// Снимок на проводе. Время — миллисекунды unix, чтобы не зависеть от
// расширений msgpack для time.
type backupFile struct {
	Version     int              `msgpack:"v"`
	CreatedAtMs int64            `msgpack:"created"`
	Materials   []materialRecord `msgpack:"materials,omitempty"`
	Candles     []candleRecord   `msgpack:"candles,omitempty"`
}

type materialRecord struct {
	ID                     int64    `msgpack:"id"`
	Name                   string   `msgpack:"name"`
	Category               string   `msgpack:"category"`
	Quantity               float64  `msgpack:"qty"`
	Unit                   string   `msgpack:"unit"`
	Price                  float64  `msgpack:"price"`
	PreferredWickName      string   `msgpack:"pref_wick,omitempty"`
	PreferredConcentration *float64 `msgpack:"pref_conc,omitempty"`
	CreatedAtMs            int64    `msgpack:"created,omitempty"`
	UpdatedAtMs            int64    `msgpack:"updated,omitempty"`
}

type candleRecord struct {
	ID            int64   `msgpack:"id"`
	BatchID       string  `msgpack:"batch"`
	ContainerName string  `msgpack:"container"`
	WaxName       string  `msgpack:"wax"`
	FragranceName string  `msgpack:"fragrance,omitempty"`
	WickName      string  `msgpack:"wick,omitempty"`
	DyeName       string  `msgpack:"dye,omitempty"`
	Concentration float64 `msgpack:"conc"`
	Capacity      float64 `msgpack:"capacity"`
	Cost          float64 `msgpack:"cost"`
	Recipient     string  `msgpack:"recipient,omitempty"`
	CreatedAtMs   int64   `msgpack:"created"`
	ReadyAtMs     int64   `msgpack:"ready"`
	BurnMinutes   int     `msgpack:"burn,omitempty"`
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func WriteBackup(w io.Writer, b Backup) error {
	f := backupFile{Version: BackupVersion, CreatedAtMs: toMs(b.CreatedAt)}
	for _, m := range b.Materials {
		f.Materials = append(f.Materials, materialRecord{
			ID: m.ID, Name: m.Name, Category: string(m.Category),
			Quantity: m.Quantity, Unit: string(m.Unit), Price: m.Price,
			PreferredWickName: m.PreferredWickName, PreferredConcentration: m.PreferredConcentration,
			CreatedAtMs: toMs(m.CreatedAt), UpdatedAtMs: toMs(m.UpdatedAt),
		})
	}
	for _, c := range b.Candles {
		f.Candles = append(f.Candles, candleRecord{
			ID: c.ID, BatchID: c.BatchID,
			ContainerName: c.ContainerName, WaxName: c.WaxName, FragranceName: c.FragranceName,
			WickName: c.WickName, DyeName: c.DyeName,
			Concentration: c.Concentration, Capacity: c.Capacity, Cost: c.Cost, Recipient: c.Recipient,
			CreatedAtMs: toMs(c.CreatedAt), ReadyAtMs: toMs(c.ReadyAt), BurnMinutes: c.BurnMinutes,
		})
	}
	if err := msgpack.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// ReadBackup читает и проверяет снимок: версию, единицы и категории.
// Старая единица "szt" принимается как штуки.
func ReadBackup(r io.Reader) (Backup, error) {
	var f backupFile
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return Backup{}, fmt.Errorf("decoding backup: %w", err)
	}
	if f.Version < 1 || f.Version > BackupVersion {
		return Backup{}, fmt.Errorf("%w: %d", ErrBackupVersion, f.Version)
	}

	b := Backup{Version: f.Version, CreatedAt: fromMs(f.CreatedAtMs)}
	for _, rec := range f.Materials {
		unit, ok := materials.ParseUnit(rec.Unit)
		if !ok {
			return Backup{}, fmt.Errorf("material %q: unknown unit %q", rec.Name, rec.Unit)
		}
		cat, ok := materials.ParseCategory(rec.Category)
		if !ok {
			return Backup{}, fmt.Errorf("material %q: unknown category %q", rec.Name, rec.Category)
		}
		b.Materials = append(b.Materials, materials.Material{
			ID: rec.ID, Name: rec.Name, Category: cat,
			Quantity: rec.Quantity, Unit: unit, Price: rec.Price,
			PreferredWickName: rec.PreferredWickName, PreferredConcentration: rec.PreferredConcentration,
			CreatedAt: fromMs(rec.CreatedAtMs), UpdatedAt: fromMs(rec.UpdatedAtMs),
		})
	}
	for _, rec := range f.Candles {
		b.Candles = append(b.Candles, candles.Candle{
			ID: rec.ID, BatchID: rec.BatchID,
			ContainerName: rec.ContainerName, WaxName: rec.WaxName, FragranceName: rec.FragranceName,
			WickName: rec.WickName, DyeName: rec.DyeName,
			Concentration: rec.Concentration, Capacity: rec.Capacity, Cost: rec.Cost, Recipient: rec.Recipient,
			CreatedAt: fromMs(rec.CreatedAtMs), ReadyAt: fromMs(rec.ReadyAtMs), BurnMinutes: rec.BurnMinutes,
		})
	}
	return b, nil
}
