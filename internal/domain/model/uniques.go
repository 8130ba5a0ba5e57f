package model

import "strings"

// DefaultUniques lists the unique monsters recognised as killers and kill targets.
var DefaultUniques = []string{
	"Agnes", "Aizul", "Antaeus", "Asmodeus", "Asterion", "Azrael", "Blork the orc",
	"Boris", "Cerebov", "Crazy Yiuf", "Dispater", "Dissolution", "Donald", "Dowan",
	"Duvessa", "Edmund", "Enchantress", "Ereshkigal", "Erica", "Erolcha", "Eustachio",
	"Fannar", "Frances", "Frederick", "Gastronok", "Geryon", "Gloorx Vloq", "Grinder",
	"Grum", "Harold", "Ignacio", "Ijyb", "Ilsuiw", "Jessica", "Jorgrun", "Jory",
	"Joseph", "Josephine", "Khufu", "Kirke", "Lamia", "Lom Lobon", "Louise",
	"Mara", "Margery", "Maud", "Maurice", "Menkaure", "Mennas", "Mnoleg", "Murray",
	"Natasha", "Nellie", "Nergalle", "Nessos", "Nikola", "Norris", "Pikel", "Polyphemus",
	"Prince Ribbit", "Psyche", "Purgy", "Robin", "Roxanne", "Rupert", "Saint Roka",
	"Sigmund", "Snorg", "Sojobo", "Sonja", "Terence", "Tiamat", "Urug", "Vashnia",
	"Xtahua", "Wiglaf", "Ancient Champion",
}

// Uniques is a case-insensitive set of unique names.
type Uniques map[string]struct{}

// NewUniques builds a set from names, falling back to DefaultUniques.
func NewUniques(names []string) Uniques {
	if len(names) == 0 {
		names = DefaultUniques
	}
	u := make(Uniques, len(names))
	for _, n := range names {
		u[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return u
}

// Contains reports whether name is a known unique.
func (u Uniques) Contains(name string) bool {
	_, ok := u[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
