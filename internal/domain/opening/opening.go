package opening

import (
	"fmt"
	"strings"

	errs "askgm/internal/errors"
)

const (
	CategoryE4    = "e4 Openings"
	CategoryD4    = "d4 Openings"
	CategoryFlank = "Flank Openings"
)

var Categories = []string{CategoryE4, CategoryD4, CategoryFlank}

// Opening is a named line for study mode. Moves are in UCI notation from the
// standard starting position.
type Opening struct {
	Key         string   `json:"key"`
	ECO         string   `json:"eco"`
	Name        string   `json:"name"`
	Moves       []string `json:"moves"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
}

var catalogue = []Opening{
	{
		Key:         "italian-game",
		ECO:         "C50",
		Name:        "Italian Game",
		Moves:       []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4"},
		Description: "Quick development aimed at the centre and the f7 square.",
		Category:    CategoryE4,
	},
	{
		Key:         "evans-gambit",
		ECO:         "C51",
		Name:        "Evans Gambit",
		Moves:       []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5", "b2b4"},
		Description: "White gives up the b-pawn for tempo and a broad centre.",
		Category:    CategoryE4,
	},
	{
		Key:         "ruy-lopez-spanish",
		ECO:         "C60",
		Name:        "Ruy Lopez (Spanish)",
		Moves:       []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"},
		Description: "The bishop pressures the knight defending e5; a long strategic fight.",
		Category:    CategoryE4,
	},
	{
		Key:         "berlin-defense",
		ECO:         "C67",
		Name:        "Berlin Defense",
		Moves:       []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "g8f6", "e1g1", "f6e4", "d1e2"},
		Description: "A solid answer to the Ruy Lopez that often heads for an early endgame.",
		Category:    CategoryE4,
	},
	{
		Key:         "sicilian-defense",
		ECO:         "B20",
		Name:        "Sicilian Defense",
		Moves:       []string{"e2e4", "c7c5"},
		Description: "Black meets 1.e4 asymmetrically and plays for an unbalanced game.",
		Category:    CategoryE4,
	},
	{
		Key:         "sicilian-grand-prix-attack",
		ECO:         "B23",
		Name:        "Sicilian: Grand Prix Attack",
		Moves:       []string{"e2e4", "c7c5", "b1c3", "b8c6", "f2f4"},
		Description: "White answers the Sicilian with f4 and a direct kingside attack.",
		Category:    CategoryE4,
	},
	{
		Key:         "sicilian-najdorf",
		ECO:         "B60",
		Name:        "Sicilian: Najdorf",
		Moves:       []string{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4", "g8f6", "b1c3", "a7a6"},
		Description: "With ...a6 Black keeps every option open and prepares queenside play.",
		Category:    CategoryE4,
	},
	{
		Key:         "sicilian-dragon",
		ECO:         "B70",
		Name:        "Sicilian: Dragon",
		Moves:       []string{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4", "g8f6", "b1c3", "g7g6"},
		Description: "Black fianchettoes on g7; races on opposite wings are typical.",
		Category:    CategoryE4,
	},
	{
		Key:         "french-defense",
		ECO:         "C00",
		Name:        "French Defense",
		Moves:       []string{"e2e4", "e7e6"},
		Description: "Black builds a solid chain with ...e6 and ...d5 and strikes back later.",
		Category:    CategoryE4,
	},
	{
		Key:         "french-classical",
		ECO:         "C11",
		Name:        "French: Classical",
		Moves:       []string{"e2e4", "e7e6", "d2d4", "d7d5", "b1c3", "g8f6"},
		Description: "Black develops the king's knight and keeps tension in the centre.",
		Category:    CategoryE4,
	},
	{
		Key:         "caro-kann-defense",
		ECO:         "B10",
		Name:        "Caro-Kann Defense",
		Moves:       []string{"e2e4", "c7c6"},
		Description: "Black supports ...d5 with the c-pawn and keeps a sound structure.",
		Category:    CategoryE4,
	},
	{
		Key:         "caro-kann-advance",
		ECO:         "B12",
		Name:        "Caro-Kann: Advance",
		Moves:       []string{"e2e4", "c7c6", "d2d4", "d7d5", "e4e5"},
		Description: "White grabs space with e5 and cramps Black's kingside.",
		Category:    CategoryE4,
	},
	{
		Key:         "scandinavian-defense",
		ECO:         "B01",
		Name:        "Scandinavian Defense",
		Moves:       []string{"e2e4", "d7d5"},
		Description: "Black challenges e4 at once and accepts an early queen sortie.",
		Category:    CategoryE4,
	},
	{
		Key:         "kings-gambit",
		ECO:         "C30",
		Name:        "King's Gambit",
		Moves:       []string{"e2e4", "e7e5", "f2f4"},
		Description: "White offers the f-pawn to open the f-file and seize the centre.",
		Category:    CategoryE4,
	},
	{
		Key:         "kings-gambit-accepted",
		ECO:         "C33",
		Name:        "King's Gambit Accepted",
		Moves:       []string{"e2e4", "e7e5", "f2f4", "e5f4", "f1c4"},
		Description: "Black takes the pawn; White develops fast and aims at f7.",
		Category:    CategoryE4,
	},
	{
		Key:         "petroff-defense",
		ECO:         "C40",
		Name:        "Petroff Defense",
		Moves:       []string{"e2e4", "e7e5", "g1f3", "g8f6"},
		Description: "Black counterattacks e4 with symmetrical, very solid play.",
		Category:    CategoryE4,
	},
	{
		Key:         "pirc-defense",
		ECO:         "B07",
		Name:        "Pirc Defense",
		Moves:       []string{"e2e4", "d7d6", "d2d4", "g8f6", "b1c3", "g7g6"},
		Description: "Black lets White build a centre and undermines it from g7.",
		Category:    CategoryE4,
	},
	{
		Key:         "queens-gambit-declined",
		ECO:         "D30",
		Name:        "Queen's Gambit Declined",
		Moves:       []string{"d2d4", "d7d5", "c2c4", "e7e6"},
		Description: "Black keeps a firm pawn on d5 and develops calmly.",
		Category:    CategoryD4,
	},
	{
		Key:         "queens-gambit-accepted",
		ECO:         "D20",
		Name:        "Queen's Gambit Accepted",
		Moves:       []string{"d2d4", "d7d5", "c2c4", "d5c4"},
		Description: "Black takes on c4 and frees the position in return for the centre.",
		Category:    CategoryD4,
	},
	{
		Key:         "qgd-vienna-variation",
		ECO:         "D37",
		Name:        "QGD: Vienna Variation",
		Moves:       []string{"d2d4", "d7d5", "c2c4", "e7e6", "b1c3", "g8f6", "g1f3", "d5c4"},
		Description: "A sharp branch of the Queen's Gambit where Black captures on c4 late.",
		Category:    CategoryD4,
	},
	{
		Key:         "kings-indian-defense",
		ECO:         "E60",
		Name:        "King's Indian Defense",
		Moves:       []string{"d2d4", "g8f6", "c2c4", "g7g6", "b1c3", "f8g7", "e2e4", "d7d6", "g1f3", "e8g8"},
		Description: "Black concedes the centre, castles, and counterattacks on the kingside.",
		Category:    CategoryD4,
	},
	{
		Key:         "nimzo-indian-defense",
		ECO:         "E20",
		Name:        "Nimzo-Indian Defense",
		Moves:       []string{"d2d4", "g8f6", "c2c4", "e7e6", "b1c3", "f8b4"},
		Description: "The bishop pin on c3 fights for e4 and can double White's pawns.",
		Category:    CategoryD4,
	},
	{
		Key:         "queens-indian-defense",
		ECO:         "E15",
		Name:        "Queen's Indian Defense",
		Moves:       []string{"d2d4", "g8f6", "c2c4", "e7e6", "g1f3", "b7b6"},
		Description: "Black fianchettoes on b7 to control e4 and the long diagonal.",
		Category:    CategoryD4,
	},
	{
		Key:         "grunfeld-defense",
		ECO:         "D70",
		Name:        "Grünfeld Defense",
		Moves:       []string{"d2d4", "g8f6", "c2c4", "g7g6", "b1c3", "d7d5"},
		Description: "Black invites a big centre and attacks it with pieces and ...c5.",
		Category:    CategoryD4,
	},
	{
		Key:         "slav-defense",
		ECO:         "D10",
		Name:        "Slav Defense",
		Moves:       []string{"d2d4", "d7d5", "c2c4", "c7c6"},
		Description: "Black defends d5 with the c-pawn and keeps the light bishop free.",
		Category:    CategoryD4,
	},
	{
		Key:         "semi-slav-defense",
		ECO:         "D43",
		Name:        "Semi-Slav Defense",
		Moves:       []string{"d2d4", "d7d5", "c2c4", "c7c6", "b1c3", "g8f6", "g1f3", "e7e6"},
		Description: "A flexible mix of Slav and Queen's Gambit Declined structures.",
		Category:    CategoryD4,
	},
	{
		Key:         "dutch-defense",
		ECO:         "A80",
		Name:        "Dutch Defense",
		Moves:       []string{"d2d4", "f7f5"},
		Description: "Black fights for e4 with the f-pawn and aims for kingside play.",
		Category:    CategoryD4,
	},
	{
		Key:         "english-opening",
		ECO:         "A10",
		Name:        "English Opening",
		Moves:       []string{"c2c4"},
		Description: "White controls d5 from the flank and keeps the game flexible.",
		Category:    CategoryFlank,
	},
	{
		Key:         "english-kings-english",
		ECO:         "A20",
		Name:        "English: King's English",
		Moves:       []string{"c2c4", "e7e5"},
		Description: "A reversed Sicilian with an extra tempo for White.",
		Category:    CategoryFlank,
	},
	{
		Key:         "reti-opening",
		ECO:         "A04",
		Name:        "Réti Opening",
		Moves:       []string{"g1f3"},
		Description: "White delays pawn moves in the centre and attacks it from the wings.",
		Category:    CategoryFlank,
	},
	{
		Key:         "kings-indian-attack",
		ECO:         "A07",
		Name:        "King's Indian Attack",
		Moves:       []string{"g1f3", "d7d5", "g2g3", "g8f6", "f1g2", "e7e6", "e1g1"},
		Description: "White sets up Nf3, g3, Bg2 and castles, a system for many defences.",
		Category:    CategoryFlank,
	},
	{
		Key:         "birds-opening",
		ECO:         "A00",
		Name:        "Bird's Opening",
		Moves:       []string{"f2f4"},
		Description: "White controls e5 with the f-pawn and steers away from main lines.",
		Category:    CategoryFlank,
	},
	{
		Key:         "larsens-opening",
		ECO:         "A00",
		Name:        "Larsen's Opening",
		Moves:       []string{"b2b3"},
		Description: "White fianchettoes the queen's bishop for pressure on the long diagonal.",
		Category:    CategoryFlank,
	},
}

// All returns the catalogue in display order.
func All() []Opening {
	out := make([]Opening, len(catalogue))
	copy(out, catalogue)
	return out
}

// ByCategory returns the openings of one category.
func ByCategory(category string) []Opening {
	var out []Opening
	for _, o := range catalogue {
		if o.Category == category {
			out = append(out, o)
		}
	}
	return out
}

// Find looks an opening up by key, or by ECO code when the code is unique.
func Find(key string) (Opening, error) {
	key = strings.TrimSpace(key)
	for _, o := range catalogue {
		if o.Key == key {
			return o, nil
		}
	}
	var match []Opening
	for _, o := range catalogue {
		if strings.EqualFold(o.ECO, key) {
			match = append(match, o)
		}
	}
	if len(match) == 1 {
		return match[0], nil
	}
	return Opening{}, fmt.Errorf("%w: %q", errs.ErrOpeningNotFound, key)
}
