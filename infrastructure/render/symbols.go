package render

import "fmt"

var PartyEmojis = []string{
	":zero:", ":one:", ":two:", ":three:", ":four:", ":five:", ":six:", ":seven:", ":eight:", ":nine:",
}

// SymbolsSource labels a chart segment by its index; the label is what a
// user types (or clicks) to select it.
type SymbolsSource interface {
	ForIndex(i int) string
}

type ArraySymbolsSource []string

func (a ArraySymbolsSource) ForIndex(i int) string {
	if i < len(a) {
		return a[i]
	}
	return fmt.Sprintf("%d", i)
}

type NumbersSymbolsSource struct{}

func (NumbersSymbolsSource) ForIndex(i int) string {
	return fmt.Sprintf("[%d]", i)
}

func GetSymbolsSource(segments int) SymbolsSource {
	if segments <= len(PartyEmojis) {
		return ArraySymbolsSource(PartyEmojis)
	}
	return NumbersSymbolsSource{}
}
