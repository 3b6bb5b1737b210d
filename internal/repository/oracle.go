package repository

import (
	"fmt"
	"sort"

	"github.com/notnil/chess"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

// ChessOracle answers rule questions about positions. Positions are FEN
// strings that round-trip through github.com/notnil/chess unchanged.
type ChessOracle struct{}

func NewChessOracle() *ChessOracle {
	return &ChessOracle{}
}

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

var startingCounts = map[chess.PieceType]int{
	chess.Pawn:   8,
	chess.Knight: 2,
	chess.Bishop: 2,
	chess.Rook:   2,
	chess.Queen:  1,
}

var materialOrder = []chess.PieceType{chess.Queen, chess.Rook, chess.Bishop, chess.Knight, chess.Pawn}

func loadPosition(pos domain.Position) (*chess.Position, error) {
	opt, err := chess.FEN(pos.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidPosition, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// Normalize parses fen and re-encodes it, so the result is canonical.
func (o *ChessOracle) Normalize(fen string) (domain.Position, error) {
	p, err := loadPosition(domain.Position(fen))
	if err != nil {
		return "", err
	}
	return domain.Position(p.String()), nil
}

func (o *ChessOracle) Apply(pos domain.Position, mv domain.Move) (domain.Position, error) {
	p, err := loadPosition(pos)
	if err != nil {
		return "", err
	}
	m := findMove(p, mv)
	if m == nil {
		return "", fmt.Errorf("%w: %s", errs.ErrIllegalMove, mv)
	}
	return domain.Position(p.Update(m).String()), nil
}

func (o *ChessOracle) LegalDestinations(pos domain.Position, square string) ([]string, error) {
	from, err := parseSquare(square)
	if err != nil {
		return nil, err
	}
	p, err := loadPosition(pos)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range p.ValidMoves() {
		if m.S1() != from {
			continue
		}
		to := m.S2().String()
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LegalMoves lists every legal move of the side to move.
func (o *ChessOracle) LegalMoves(pos domain.Position) ([]domain.Move, error) {
	p, err := loadPosition(pos)
	if err != nil {
		return nil, err
	}
	valid := p.ValidMoves()
	out := make([]domain.Move, 0, len(valid))
	for _, m := range valid {
		out = append(out, toDomainMove(m))
	}
	return out, nil
}

func (o *ChessOracle) KingSquare(pos domain.Position, white bool) (string, error) {
	p, err := loadPosition(pos)
	if err != nil {
		return "", err
	}
	sq, ok := kingSquare(p.Board(), colorOf(white))
	if !ok {
		return "", fmt.Errorf("%w: no king", errs.ErrInvalidPosition)
	}
	return sq.String(), nil
}

// IsInCheck reports whether the side to move is in check.
func (o *ChessOracle) IsInCheck(pos domain.Position) (bool, error) {
	p, err := loadPosition(pos)
	if err != nil {
		return false, err
	}
	mover := p.Turn()
	king, ok := kingSquare(p.Board(), mover)
	if !ok {
		return false, fmt.Errorf("%w: no king", errs.ErrInvalidPosition)
	}
	return squareAttacked(p.Board().SquareMap(), king, mover.Other()), nil
}

func (o *ChessOracle) Material(pos domain.Position) (domain.Material, error) {
	p, err := loadPosition(pos)
	if err != nil {
		return domain.Material{}, err
	}
	onBoard := map[chess.Color]map[chess.PieceType]int{
		chess.White: {},
		chess.Black: {},
	}
	for _, piece := range p.Board().SquareMap() {
		if piece == chess.NoPiece || piece.Type() == chess.King {
			continue
		}
		onBoard[piece.Color()][piece.Type()]++
	}

	res := domain.Material{CapturedByWhite: []string{}, CapturedByBlack: []string{}}
	for _, pt := range materialOrder {
		missingBlack := startingCounts[pt] - onBoard[chess.Black][pt]
		missingWhite := startingCounts[pt] - onBoard[chess.White][pt]
		for i := 0; i < missingBlack; i++ {
			res.CapturedByWhite = append(res.CapturedByWhite, pt.String())
		}
		for i := 0; i < missingWhite; i++ {
			res.CapturedByBlack = append(res.CapturedByBlack, pt.String())
		}
		res.Advantage += (missingBlack - missingWhite) * pieceValues[pt]
	}
	return res, nil
}

func findMove(p *chess.Position, mv domain.Move) *chess.Move {
	for _, m := range p.ValidMoves() {
		if m.S1().String() != mv.From || m.S2().String() != mv.To {
			continue
		}
		if promoLetter(m.Promo()) == mv.Promotion {
			return m
		}
	}
	return nil
}

func toDomainMove(m *chess.Move) domain.Move {
	return domain.Move{From: m.S1().String(), To: m.S2().String(), Promotion: promoLetter(m.Promo())}
}

func promoLetter(pt chess.PieceType) string {
	switch pt {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

func colorOf(white bool) chess.Color {
	if white {
		return chess.White
	}
	return chess.Black
}

func parseSquare(s string) (chess.Square, error) {
	if !domain.ValidSquare(s) {
		return chess.NoSquare, fmt.Errorf("%w: %q", errs.ErrInvalidSquare, s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	return chess.Square(file + rank*8), nil
}

func kingSquare(b *chess.Board, c chess.Color) (chess.Square, bool) {
	for sq, piece := range b.SquareMap() {
		if piece.Type() == chess.King && piece.Color() == c {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

var (
	knightJumps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// squareAttacked reports whether any piece of color by attacks target.
func squareAttacked(sm map[chess.Square]chess.Piece, target chess.Square, by chess.Color) bool {
	tf, tr := int(target)%8, int(target)/8
	pieceAt := func(f, r int) chess.Piece {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece
		}
		return sm[chess.Square(f+r*8)]
	}
	is := func(p chess.Piece, types ...chess.PieceType) bool {
		if p == chess.NoPiece || p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	pawnRank := tr - 1
	if by == chess.Black {
		pawnRank = tr + 1
	}
	if is(pieceAt(tf-1, pawnRank), chess.Pawn) || is(pieceAt(tf+1, pawnRank), chess.Pawn) {
		return true
	}
	for _, d := range knightJumps {
		if is(pieceAt(tf+d[0], tr+d[1]), chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if is(pieceAt(tf+d[0], tr+d[1]), chess.King) {
			return true
		}
	}
	slide := func(rays [][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			for f, r := tf+d[0], tr+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
				p := pieceAt(f, r)
				if p == chess.NoPiece {
					continue
				}
				if is(p, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(rookRays, chess.Rook, chess.Queen) || slide(bishopRays, chess.Bishop, chess.Queen)
}
