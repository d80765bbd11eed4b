package catalog

import "sort"

// Cache - id-индексы по четырём каталогам. Виды никогда не пересекаются.
type Cache struct {
	Materials map[int64]Material
	Labor     map[int64]Labor
	Equipment map[int64]Equipment
	Machinery map[int64]Machinery
}

func NewCache(ms []Material, ls []Labor, es []Equipment, qs []Machinery) *Cache {
	c := &Cache{
		Materials: make(map[int64]Material, len(ms)),
		Labor:     make(map[int64]Labor, len(ls)),
		Equipment: make(map[int64]Equipment, len(es)),
		Machinery: make(map[int64]Machinery, len(qs)),
	}
	for _, m := range ms {
		c.Materials[m.ID] = m
	}
	for _, l := range ls {
		c.Labor[l.ID] = l
	}
	for _, e := range es {
		c.Equipment[e.ID] = e
	}
	for _, q := range qs {
		c.Machinery[q.ID] = q
	}
	return c
}

// Get ищет запись по виду и id. nil-кэш - это "каталоги ещё не загружены".
func (c *Cache) Get(kind Kind, id int64) (Entry, bool) {
	if c == nil {
		return nil, false
	}
	switch kind {
	case KindMaterial:
		m, ok := c.Materials[id]
		return m, ok
	case KindLabor:
		l, ok := c.Labor[id]
		return l, ok
	case KindEquipment:
		e, ok := c.Equipment[id]
		return e, ok
	case KindMachinery:
		q, ok := c.Machinery[id]
		return q, ok
	}
	return nil, false
}

func (c *Cache) Material(id int64) (Material, bool) {
	if c == nil {
		return Material{}, false
	}
	m, ok := c.Materials[id]
	return m, ok
}

func (c *Cache) LaborEntry(id int64) (Labor, bool) {
	if c == nil {
		return Labor{}, false
	}
	l, ok := c.Labor[id]
	return l, ok
}

func (c *Cache) EquipmentEntry(id int64) (Equipment, bool) {
	if c == nil {
		return Equipment{}, false
	}
	e, ok := c.Equipment[id]
	return e, ok
}

func (c *Cache) MachineryEntry(id int64) (Machinery, bool) {
	if c == nil {
		return Machinery{}, false
	}
	q, ok := c.Machinery[id]
	return q, ok
}

// Candidates возвращает записи одного вида, отсортированные по id.
func (c *Cache) Candidates(kind Kind) []Entry {
	if c == nil {
		return nil
	}
	var out []Entry
	switch kind {
	case KindMaterial:
		for _, m := range c.Materials {
			out = append(out, m)
		}
	case KindLabor:
		for _, l := range c.Labor {
			out = append(out, l)
		}
	case KindEquipment:
		for _, e := range c.Equipment {
			out = append(out, e)
		}
	case KindMachinery:
		for _, q := range c.Machinery {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID() < out[j].EntryID() })
	return out
}

// Len - общее число записей во всех каталогах
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Materials) + len(c.Labor) + len(c.Equipment) + len(c.Machinery)
}
