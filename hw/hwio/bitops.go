package hwio

func FlipBit32(v *uint32, n uint) {
	*v ^= (1 << n)
}

func SetBits32(v *uint32, mask uint32) {
	*v |= mask
}

func ClearBits32(v *uint32, mask uint32) {
	*v &= ^mask
}
