package dialog

type State string

const (
	StateIdle State = "idle"

	// Склад
	StateMatList       State = "mat_list"
	StateMatItem       State = "mat_item"        // карточка материала
	StateMatAddCat     State = "mat_add_cat"     // выбор категории нового материала
	StateMatAddName    State = "mat_add_name"    // ввод названия
	StateMatAddUnit    State = "mat_add_unit"    // выбор единицы
	StateMatAddQty     State = "mat_add_qty"     // ввод количества
	StateMatAddPrice   State = "mat_add_price"   // ввод стоимости всей партии
	StateMatConsumeQty State = "mat_consume_qty" // ручное списание
	StateMatSetConc    State = "mat_set_conc"    // концентрация по умолчанию для отдушки
	StateMatSetWick    State = "mat_set_wick"    // фитиль по умолчанию для ёмкости
	StateMatImportFile State = "mat_import_file" // ожидание Excel с материалами

	// Калькулятор
	StateCalc          State = "calc"           // экран рецепта
	StateCalcPick      State = "calc_pick"      // выбор материала для компонента
	StateCalcConc      State = "calc_conc"      // ввод концентрации
	StateCalcWickLen   State = "calc_wick_len"  // ввод длины фитиля
	StateCalcCount     State = "calc_count"     // ввод количества свечей
	StateCalcRecipient State = "calc_recipient" // для кого

	// Свечи
	StateCandleList    State = "candle_list"
	StateCandleItem    State = "candle_item"
	StateCandleSetBurn State = "candle_set_burn" // ввод минут горения

	// Бэкап
	StateRestoreFile State = "restore_file"
)

// Ключи payload.
const (
	KeyMaterialID = "material_id"
	KeyCandleID   = "candle_id"
	KeyCategory   = "category"
	KeyName       = "name"
	KeyUnit       = "unit"
	KeyQty        = "qty"
	KeyComponent  = "component"

	KeyContainer     = "container"
	KeyWax           = "wax"
	KeyFragrance     = "fragrance"
	KeyWick          = "wick"
	KeyDye           = "dye"
	KeyConcentration = "conc"
	KeyWickLength    = "wick_len"
	KeyCount         = "count"
	KeyRecipient     = "recipient"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
