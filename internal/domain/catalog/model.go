package catalog

import "strings"

// Kind - тип ресурса (значения совпадают с tipo_insumo бэкенда)
type Kind string

const (
	KindMaterial  Kind = "Material"
	KindLabor     Kind = "ManoObra"
	KindEquipment Kind = "Equipo"
	KindMachinery Kind = "Maquinaria"
)

// Kinds - все четыре каталога в фиксированном порядке
var Kinds = []Kind{KindMaterial, KindLabor, KindEquipment, KindMachinery}

func (k Kind) Valid() bool {
	switch k {
	case KindMaterial, KindLabor, KindEquipment, KindMachinery:
		return true
	}
	return false
}

// ParseKind нормализует тип из свободного текста ("Mano de Obra", "equipo" ...).
// Всё нераспознанное считается материалом.
func ParseKind(s string) Kind {
	t := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch t {
	case "manodeobra", "manoobra":
		return KindLabor
	case "equipo":
		return KindEquipment
	case "maquinaria":
		return KindMachinery
	default:
		return KindMaterial
	}
}

// Entry - закрытый вариант над четырьмя видами каталога.
type Entry interface {
	EntryID() int64
	Kind() Kind
	DisplayName() string
	UnitName() string
	IsObsolete() bool
	Keywords() []string

	entry()
}

type Material struct {
	ID               int64   `json:"id"`
	Name             string  `json:"nombre"`
	Unit             string  `json:"unidad"`
	UnitPrice        float64 `json:"precio_unitario"`
	WasteFraction    float64 `json:"porcentaje_merma"`
	UnitFreightPrice float64 `json:"precio_flete_unitario"`
	Discipline       string  `json:"disciplina,omitempty"`
	Quality          string  `json:"calidad,omitempty"`
	UpdatedAt        string  `json:"fecha_actualizacion,omitempty"`
	Obsolete         bool    `json:"obsoleto"`
}

type Labor struct {
	ID                   int64   `json:"id"`
	Position             string  `json:"puesto"`
	WageFactor           float64 `json:"fasar"`
	BaseSalary           float64 `json:"salario_base"`
	ProductivityPerShift float64 `json:"rendimiento_jornada"`
	Discipline           string  `json:"disciplina,omitempty"`
	Quality              string  `json:"calidad,omitempty"`
	UpdatedAt            string  `json:"fecha_actualizacion,omitempty"`
	Obsolete             bool    `json:"obsoleto"`
}

// RealWage - дневная стоимость с учётом FASAR
func (l Labor) RealWage() float64 { return l.BaseSalary * l.WageFactor }

type Equipment struct {
	ID         int64   `json:"id"`
	Name       string  `json:"nombre"`
	Unit       string  `json:"unidad"`
	HourlyCost float64 `json:"costo_hora_maq"`
	Discipline string  `json:"disciplina,omitempty"`
	Quality    string  `json:"calidad,omitempty"`
	UpdatedAt  string  `json:"fecha_actualizacion,omitempty"`
	Obsolete   bool    `json:"obsoleto"`
}

type Machinery struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"nombre"`
	HourlyPossessionCost float64 `json:"costo_posesion_hora"`
	HourlyYield          float64 `json:"rendimiento_horario"`
	AcquisitionCost      float64 `json:"costo_adquisicion,omitempty"`
	UsefulLifeHours      float64 `json:"vida_util_horas,omitempty"`
	AnnualInterestRate   float64 `json:"tasa_interes_anual,omitempty"`
	Discipline           string  `json:"disciplina,omitempty"`
	Quality              string  `json:"calidad,omitempty"`
	UpdatedAt            string  `json:"fecha_actualizacion,omitempty"`
	Obsolete             bool    `json:"obsoleto"`
}

func (m Material) EntryID() int64      { return m.ID }
func (m Material) Kind() Kind          { return KindMaterial }
func (m Material) DisplayName() string { return m.Name }
func (m Material) UnitName() string    { return m.Unit }
func (m Material) IsObsolete() bool    { return m.Obsolete }
func (m Material) Keywords() []string  { return Keywords(m.Name) }
func (Material) entry()                {}

func (l Labor) EntryID() int64      { return l.ID }
func (l Labor) Kind() Kind          { return KindLabor }
func (l Labor) DisplayName() string { return l.Position }
func (l Labor) UnitName() string    { return "jornada" }
func (l Labor) IsObsolete() bool    { return l.Obsolete }
func (l Labor) Keywords() []string  { return Keywords(l.Position) }
func (Labor) entry()                {}

func (e Equipment) EntryID() int64      { return e.ID }
func (e Equipment) Kind() Kind          { return KindEquipment }
func (e Equipment) DisplayName() string { return e.Name }
func (e Equipment) IsObsolete() bool    { return e.Obsolete }
func (e Equipment) Keywords() []string  { return Keywords(e.Name) }
func (Equipment) entry()                {}

func (e Equipment) UnitName() string {
	if strings.TrimSpace(e.Unit) == "" {
		return "hora"
	}
	return e.Unit
}

func (m Machinery) EntryID() int64      { return m.ID }
func (m Machinery) Kind() Kind          { return KindMachinery }
func (m Machinery) DisplayName() string { return m.Name }
func (m Machinery) UnitName() string    { return "hora" }
func (m Machinery) IsObsolete() bool    { return m.Obsolete }
func (m Machinery) Keywords() []string  { return Keywords(m.Name) }
func (Machinery) entry()                {}
