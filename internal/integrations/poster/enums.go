package poster

// Wewnętrzne enumy magazynu. Surowe kody źródła zwężamy do małych intów
// przy mapowaniu; nieznany kod = 0 i nigdy nie generuje powiadomienia.

const (
	ProcessingUnknown   = 0
	ProcessingOpen      = 1
	ProcessingPreparing = 2
	ProcessingReady     = 3
	ProcessingEnRoute   = 4
	ProcessingDelivered = 5
	ProcessingCancelled = 6
)

const (
	ServiceModeUnknown  = 0
	ServiceModeOnSite   = 1
	ServiceModeTakeaway = 2
	ServiceModeDelivery = 3
)

const (
	StatusUnknown = 0
	StatusOpen    = 1
	StatusClosed  = 2
	StatusDeleted = 3
)

const (
	productTypeGoods = 1
	productTypeDish  = 2
)

func mapProcessingStatus(raw int64) int {
	switch raw {
	case 10:
		return ProcessingOpen
	case 20:
		return ProcessingPreparing
	case 30:
		return ProcessingReady
	case 40:
		return ProcessingEnRoute
	case 50:
		return ProcessingDelivered
	case 60:
		return ProcessingCancelled
	default:
		return ProcessingUnknown
	}
}

func mapServiceMode(raw int64) int {
	switch raw {
	case 1:
		return ServiceModeOnSite
	case 2:
		return ServiceModeTakeaway
	case 3:
		return ServiceModeDelivery
	default:
		return ServiceModeUnknown
	}
}

func mapStatus(raw int64) int {
	switch raw {
	case 1:
		return StatusOpen
	case 2:
		return StatusClosed
	case 3:
		return StatusDeleted
	default:
		return StatusUnknown
	}
}
