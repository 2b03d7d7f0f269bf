package gateway

// Wire types for the RAG backend. Field names follow the backend's JSON
// contract (snake_case), so these structs double as DTOs for the REST facade.

type SearchQuery struct {
	Text string `json:"query"`
	TopK int    `json:"top_k"`
}

// DefaultTopK is used when the caller does not specify how many chunks to retrieve.
const DefaultTopK = 5

type Citation struct {
	PaperID        string  `json:"paper_id"`
	PageNum        int     `json:"page_num"`
	RelevanceScore float64 `json:"score"`
}

type RetrievedChunk struct {
	Score   float64 `json:"score"`
	PaperID string  `json:"paper_id"`
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	PageNum int     `json:"page_num"`
}

type RAGResult struct {
	Query           string           `json:"query"`
	Answer          string           `json:"answer"`
	Citations       []Citation       `json:"citations"`
	ChunksUsed      int              `json:"chunks_used"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks,omitempty"`
}

// Graph payload: the backend wraps node/edge attributes in a "data" envelope
// (Cytoscape convention).

type GraphNodeData struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type GraphNode struct {
	Data GraphNodeData `json:"data"`
}

type GraphEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type GraphEdge struct {
	Data GraphEdgeData `json:"data"`
}

type GraphSnapshot struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// PruneDanglingEdges returns only the edges whose source and target both
// resolve to a node in the snapshot. Dangling edges are a data error on the
// backend side; consumers tolerate them by simply not rendering them.
func (g *GraphSnapshot) PruneDanglingEdges() []GraphEdge {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.Data.ID] = struct{}{}
	}

	renderable := make([]GraphEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := ids[e.Data.Source]; !ok {
			continue
		}
		if _, ok := ids[e.Data.Target]; !ok {
			continue
		}
		renderable = append(renderable, e)
	}
	return renderable
}

type NodeSearchResult struct {
	Query   string                   `json:"query"`
	Results []map[string]interface{} `json:"results"`
}

// SearchStats status values.
const (
	StatsStatusOK          = "ok"
	StatsStatusSleeping    = "backend_sleeping"
	StatsStatusUnavailable = "backend_unavailable"
)

type SearchStats struct {
	IndexSize       int    `json:"faiss_index_size"`
	ChunksLoaded    int    `json:"chunks_loaded"`
	PapersAvailable int    `json:"papers_available"`
	GraphConnected  bool   `json:"neo4j_connected"`
	EmbeddingModel  string `json:"embedding_model"`
	Status          string `json:"status"`
}

// FallbackStats returns the deterministic substitute used when the backend is
// asleep or unreachable. The numbers mirror the production index so the UI
// can still render its stats panel.
func FallbackStats(status string) *SearchStats {
	return &SearchStats{
		IndexSize:       8927,
		ChunksLoaded:    8927,
		PapersAvailable: 100,
		GraphConnected:  false,
		EmbeddingModel:  "sentence-transformers/all-MiniLM-L6-v2",
		Status:          status,
	}
}
