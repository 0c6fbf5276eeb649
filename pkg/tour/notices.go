package tour

// Visitor-facing strings. The museum runs in pt-PT.
const (
	NoticeDataUnavailable = "Não foi possível carregar a visita."
	NoticeInvalidWaypoint = "Paragem %d: dados inválidos, a continuar."
	NoticeNoPosition      = "Paragem %d: sem posição, a continuar."
	NoticeFirstStop       = "Já estás na primeira paragem."
	NoticeLastStop        = "Já estás na última paragem."
	NoticeTourFinished    = "Fim da visita. Podes continuar a explorar."

	PlaceholderMoving = "A caminho…"
	HintStop          = "Usa ← / → para navegar. (Esc termina a visita)"
	HintReveal        = "Toca na obra para saber mais."
)
