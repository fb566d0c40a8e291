package dice

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/minio/sha256-simd"
)

const OutcomeRange = 100

// OutcomeBias é 2^128 mod 100: os resultados 1..OutcomeBias aparecem uma vez a mais
// que os demais no espaço de 2^128 somas. O viés não é corrigido para não mudar
// resultados já liquidados.
const OutcomeBias = 56

var outcomeRange = uint256.NewInt(OutcomeRange)

// DeriveOutcome transforma a assinatura da casa em um resultado entre 1 e 100.
// sha256(sig) é lido como duas metades u128 little-endian; a soma (mod 2^128) é reduzida módulo 100.
func DeriveOutcome(signature []byte) uint8 {
	return outcomeFromDigest(sha256.Sum256(signature))
}

func outcomeFromDigest(d [32]byte) uint8 {
	var lower, upper, sum, rem uint256.Int
	lower[0] = binary.LittleEndian.Uint64(d[0:8])
	lower[1] = binary.LittleEndian.Uint64(d[8:16])
	upper[0] = binary.LittleEndian.Uint64(d[16:24])
	upper[1] = binary.LittleEndian.Uint64(d[24:32])

	sum.Add(&lower, &upper)
	// wrap em 128 bits
	sum[2], sum[3] = 0, 0

	rem.Mod(&sum, outcomeRange)
	return uint8(rem.Uint64()) + 1
}
