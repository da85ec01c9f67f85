package sandpile

import rngcore "sandpile/pkg/core"

// Avalanche drops one unit of charge on a random cell and relaxes the
// lattice in synchronous waves until a wave fires nothing or the cumulative
// fired count reaches the configured cap. A capped avalanche may leave cells
// at or above the critical value.
func (l *Lattice) Avalanche() Avalanche {
	l.charge[l.rng.IntN(len(l.charge))]++

	reset := l.cfg.ResetEvery
	if reset == 0 {
		rngcore.FillMask(l.rng, l.active, l.cfg.Probability)
	}

	var res Avalanche
	for wave := 0; ; wave++ {
		if reset > 0 && wave%reset == 0 {
			rngcore.FillMask(l.rng, l.active, l.cfg.Probability)
		}

		fired := l.wave()
		res.Waves++
		res.Fired += fired
		if l.observer != nil {
			l.observer(wave, l.fired)
		}

		if fired == 0 {
			break
		}
		if l.cfg.MaxAvalanche > 0 && res.Fired >= l.cfg.MaxAvalanche {
			break
		}
	}
	return res
}

// wave fires every active over-critical cell against the current charges and
// commits the result when anything fired. Decisions read only l.charge; all
// effects land in l.next, so cells firing in the same wave never see each
// other.
func (l *Lattice) wave() int {
	copy(l.next, l.charge)
	l.fired = l.fired[:0]

	g := l.grid
	zc := l.cfg.Critical
	for i, v := range l.charge {
		if !l.active[i] || v < zc {
			continue
		}
		if !g.IsLowest(i) {
			l.next[g.Below(i)]++
		}
		if !g.IsUpper(i) {
			l.next[g.Above(i)]++
		}
		if !g.IsLeft(i) {
			l.next[g.LeftOf(i)]++
		}
		if !g.IsRight(i) {
			l.next[g.RightOf(i)]++
		}
		l.next[i] -= 4
		l.fired = append(l.fired, i)
	}

	if len(l.fired) > 0 {
		l.charge, l.next = l.next, l.charge
	}
	return len(l.fired)
}
