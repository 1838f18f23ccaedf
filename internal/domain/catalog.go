package domain

// ReactionType - элемент каталога реакций.
type ReactionType struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	DisplayName string `json:"displayName"`
	SortOrder   int    `json:"sortOrder"`
}

// Каталог фиксирован административно; все реакции валидируются по нему
// до записи. Порядок в срезе задает порядок в сводках.
var reactionCatalog = []ReactionType{
	{Name: "like", Emoji: "👍", DisplayName: "Нравится", SortOrder: 0},
	{Name: "love", Emoji: "❤️", DisplayName: "Любовь", SortOrder: 1},
	{Name: "laugh", Emoji: "😂", DisplayName: "Смех", SortOrder: 2},
	{Name: "wow", Emoji: "😮", DisplayName: "Удивление", SortOrder: 3},
	{Name: "sad", Emoji: "😢", DisplayName: "Грусть", SortOrder: 4},
	{Name: "angry", Emoji: "😡", DisplayName: "Злость", SortOrder: 5},
}

// ReactionCatalog возвращает копию каталога в порядке сортировки.
func ReactionCatalog() []ReactionType {
	out := make([]ReactionType, len(reactionCatalog))
	copy(out, reactionCatalog)
	return out
}

// IsValidReactionKind сообщает, есть ли такой вид в каталоге.
func IsValidReactionKind(kind string) bool {
	for _, rt := range reactionCatalog {
		if rt.Name == kind {
			return true
		}
	}
	return false
}

// EmptySummary строит сводку с нулевыми счетчиками по всем видам каталога.
// Читающие пути заполняют ее результатами одного сгруппированного запроса.
func EmptySummary(subject SubjectRef) *ReactionSummary {
	counts := make([]KindCount, len(reactionCatalog))
	for i, rt := range reactionCatalog {
		counts[i] = KindCount{Kind: rt.Name, Emoji: rt.Emoji}
	}
	return &ReactionSummary{Subject: subject, Counts: counts}
}

// ApplyCount прибавляет count к виду kind. Неизвестные виды игнорируются:
// в хранилище их быть не должно, но сводка от этого не ломается.
func (s *ReactionSummary) ApplyCount(kind string, count int64) {
	for i := range s.Counts {
		if s.Counts[i].Kind == kind {
			s.Counts[i].Count += count
			s.Total += count
			return
		}
	}
}
