package common

// BlockAssembler turns arbitrarily sized chunks of samples into fixed-size,
// non-overlapping blocks. Capture callbacks and decoder pipes rarely deliver
// exactly one block per read, so producers push whatever they have and
// collect complete blocks as they become available.
type BlockAssembler struct {
	buffer    []float64
	blockSize int
	writePos  int
	emitted   int
}

// NewBlockAssembler creates a new block assembler. A non-positive size is
// treated as 1.
func NewBlockAssembler(blockSize int) *BlockAssembler {
	if blockSize <= 0 {
		blockSize = 1
	}
	return &BlockAssembler{
		buffer:    make([]float64, blockSize),
		blockSize: blockSize,
	}
}

// AddSamples adds samples and returns the blocks completed by them.
// Returned blocks are freshly allocated and owned by the caller.
func (ba *BlockAssembler) AddSamples(samples []float64) [][]float64 {
	var blocks [][]float64

	for len(samples) > 0 {
		n := copy(ba.buffer[ba.writePos:], samples)
		ba.writePos += n
		samples = samples[n:]

		if ba.writePos == ba.blockSize {
			block := make([]float64, ba.blockSize)
			copy(block, ba.buffer)
			blocks = append(blocks, block)
			ba.writePos = 0
			ba.emitted++
		}
	}

	return blocks
}

// Each feeds samples through the assembler and calls fn for every completed
// block. The slice passed to fn is reused between calls; fn must copy it to
// retain it. Iteration stops at the first error fn returns.
func (ba *BlockAssembler) Each(samples []float64, fn func(block []float64) error) error {
	for len(samples) > 0 {
		n := copy(ba.buffer[ba.writePos:], samples)
		ba.writePos += n
		samples = samples[n:]

		if ba.writePos == ba.blockSize {
			ba.writePos = 0
			ba.emitted++
			if err := fn(ba.buffer); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pending returns the number of buffered samples not yet forming a block
func (ba *BlockAssembler) Pending() int {
	return ba.writePos
}

// Emitted returns the number of complete blocks produced so far
func (ba *BlockAssembler) Emitted() int {
	return ba.emitted
}

// BlockSize returns the block size
func (ba *BlockAssembler) BlockSize() int {
	return ba.blockSize
}

// Reset discards buffered samples and the emitted count
func (ba *BlockAssembler) Reset() {
	ba.writePos = 0
	ba.emitted = 0
	for i := range ba.buffer {
		ba.buffer[i] = 0.0
	}
}
