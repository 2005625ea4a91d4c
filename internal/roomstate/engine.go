package roomstate

import (
	"fmt"

	"github.com/giorgishonia/kalakobana/internal/letters"
)

// DefaultSettings returns the ruleset a freshly created room starts with:
// the seven stock categories, five rounds, no bonus.
func DefaultSettings() RoomSettings {
	return RoomSettings{
		MaxRounds:  5,
		Categories: append([]string(nil), letters.DefaultCategories...),
	}
}

// drawLetterLocked selects the round's letter uniformly at random from the
// alphabet minus already-used letters, clearing the used set first if it
// has been exhausted. Caller must hold r.mu.
func (r *Room) drawLetterLocked() rune {
	letter, cleared := letters.Draw(r.UsedLetters)
	if cleared {
		r.UsedLetters = make(map[rune]bool)
	}
	r.UsedLetters[letter] = true
	r.CurrentLetter = letter
	return letter
}

// assembleCategoriesLocked builds this round's category set: the settings'
// categories in order as cat_0, cat_1, ..., plus (if UseBonus) one more
// entry keyed "bonus" holding a random pick from the fixed bonus pool.
// Caller must hold r.mu.
func (r *Room) assembleCategoriesLocked() {
	cats := r.Settings.Categories
	if len(cats) == 0 {
		cats = letters.DefaultCategories
	}
	active := make(map[string]string, len(cats)+1)
	order := make([]string, 0, len(cats)+1)
	for i, name := range cats {
		key := fmt.Sprintf("cat_%d", i)
		active[key] = name
		order = append(order, key)
	}
	if r.Settings.UseBonus {
		active["bonus"] = letters.RandomBonusCategory()
		order = append(order, "bonus")
	}
	r.ActiveCategories = active
	r.CategoryOrder = order
}

// runScoringPassLocked scores the finished round: for every player and
// category, 0 points if the (normalized) answer is empty or doesn't start
// with the round's letter; otherwise 20, reduced to 10 if any other player
// gave the identical normalized answer. Caller must hold r.mu.
func (r *Room) runScoringPassLocked() {
	// Pre-normalize every player's answer per category for the duplicate check.
	normalized := make(map[string]map[string]string, len(r.Players)) // playerID -> cat -> normalized answer
	for id, p := range r.Players {
		m := make(map[string]string, len(r.CategoryOrder))
		for _, cat := range r.CategoryOrder {
			m[cat] = letters.Normalize(p.Answers[cat])
		}
		normalized[id] = m
	}

	for _, cat := range r.CategoryOrder {
		// Count occurrences of each valid normalized answer across players.
		counts := make(map[string]int)
		for _, m := range normalized {
			a := m[cat]
			if a != "" && letters.StartsWithLetter(a, r.CurrentLetter) {
				counts[a]++
			}
		}

		for id, p := range r.Players {
			a := normalized[id][cat]
			raw := p.Answers[cat]
			score := &CategoryScore{Answer: raw}
			if a == "" || !letters.StartsWithLetter(a, r.CurrentLetter) {
				score.Points = 0
				score.IsValid = false
			} else {
				score.IsValid = true
				if counts[a] > 1 {
					score.Points = 10
				} else {
					score.Points = 20
				}
			}
			p.CategoryScores[cat] = score
		}
	}

	for _, p := range r.Players {
		p.RoundScore = 0
		for _, cat := range r.CategoryOrder {
			if sc := p.CategoryScores[cat]; sc != nil && sc.InvalidatedBy == "" {
				p.RoundScore += sc.Points
			}
		}
		p.TotalScore += p.RoundScore
	}
}

// ToggleInvalidation flips the validity marking of one (player, category)
// scoring result. Any current member may call this while the room is in
// the results phase, including against their own answers. The
// decrement/increment always uses the scoring-pass points value, never a
// recomputation; a zero-point toggle still sets and clears InvalidatedBy.
func (r *Room) ToggleInvalidation(togglerID, targetPlayerID, categoryKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseResults {
		return fmt.Errorf("invalidation only allowed during results")
	}
	if _, ok := r.Players[togglerID]; !ok {
		return fmt.Errorf("not a member of this room")
	}
	target, ok := r.Players[targetPlayerID]
	if !ok {
		return fmt.Errorf("unknown player")
	}
	score, ok := target.CategoryScores[categoryKey]
	if !ok {
		return fmt.Errorf("unknown category")
	}

	if score.InvalidatedBy == "" {
		score.InvalidatedBy = togglerID
		target.RoundScore -= score.Points
		target.TotalScore -= score.Points
	} else {
		score.InvalidatedBy = ""
		target.RoundScore += score.Points
		target.TotalScore += score.Points
	}
	return nil
}

// Standing is one row of the final game standings.
type Standing struct {
	PlayerID   string `json:"playerId"`
	Nick       string `json:"nick"`
	TotalScore int    `json:"totalScore"`
}

// Standings computes the final ranking: stable sort by TotalScore
// descending, ties preserved in seat order.
func (r *Room) Standings() []Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standingsLocked()
}

func (r *Room) standingsLocked() []Standing {
	out := make([]Standing, 0, len(r.Seats))
	for _, id := range r.Seats {
		p, ok := r.Players[id]
		if !ok {
			continue
		}
		out = append(out, Standing{PlayerID: p.ID, Nick: p.Nick, TotalScore: p.TotalScore})
	}
	// Stable sort descending by TotalScore; seat order (the slice's current
	// order) is the tie-break, so a stable sort preserves it automatically.
	stableSortStandingsDesc(out)
	return out
}

func stableSortStandingsDesc(s []Standing) {
	// Insertion sort: stable, and standings lists are capped at MaxPlayers,
	// so quadratic behavior is irrelevant here.
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j].TotalScore < key.TotalScore {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
