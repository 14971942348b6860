package rule

type BlockState string

const (
	BlockEmpty    BlockState = "empty"
	BlockBuilding BlockState = "building"
)

// Block accumulates the text of one in-progress rule.
type Block struct {
	ID   int `json:"id"`
	text string
}

func NewBlock(id int) *Block {
	return &Block{ID: id}
}

func (b *Block) Text() string {
	return b.text
}

func (b *Block) State() BlockState {
	if b.text == "" {
		return BlockEmpty
	}
	return BlockBuilding
}

// Add appends the piece's clause. A clause after the first is prefixed by
// its join operator, or by a single space when the join is empty.
func (b *Block) Add(p Piece) (string, error) {
	if err := p.Validate(); err != nil {
		return b.text, err
	}
	clause := p.Clause()
	switch {
	case b.text == "":
		b.text = clause
	case p.Join != "":
		b.text += " " + p.Join + " " + clause
	default:
		b.text += " " + clause
	}
	return b.text, nil
}

func (b *Block) Reset() {
	b.text = ""
}
