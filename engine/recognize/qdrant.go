package recognize

import (
	"context"
	"fmt"
	"sort"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Embedder turns a place photo into a feature vector. The real
// implementation calls an external vision service; the learning side of
// recognition stays outside this module.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

// QdrantRecognizer ranks locations by vector similarity against an index
// of labelled place-photo embeddings stored in Qdrant.
type QdrantRecognizer struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
	embed      Embedder
	mapper     *Mapper
}

// NewQdrantRecognizer connects to Qdrant at the given gRPC address.
func NewQdrantRecognizer(addr, collection string, embed Embedder, index NodeIndex) (*QdrantRecognizer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("recognize: dial qdrant %s: %w", addr, err)
	}
	return &QdrantRecognizer{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
		embed:      embed,
		mapper:     NewMapper(index),
	}, nil
}

// Close closes the underlying gRPC connection.
func (r *QdrantRecognizer) Close() error {
	return r.conn.Close()
}

// Recognize embeds the image, searches the photo index, and maps the hit
// labels onto navigation nodes. Hits whose labels resolve to no node are
// dropped; results come back in descending confidence order.
func (r *QdrantRecognizer) Recognize(ctx context.Context, image []byte, topK int) ([]Candidate, error) {
	vector, err := r.embed.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("recognize: embed image: %w", err)
	}

	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: search: %w", err)
	}

	var out []Candidate
	for _, hit := range resp.GetResult() {
		label := hit.GetPayload()["label"].GetStringValue()
		node, ok, err := r.mapper.MapLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		detail := node.Detail
		if detail == "" {
			detail = fmt.Sprintf("recognized from: %s", label)
		}
		out = append(out, Candidate{
			NodeID:     node.ID,
			NodeName:   node.Name,
			Detail:     detail,
			Floor:      node.Floor,
			Confidence: round2(float64(hit.GetScore())),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}
