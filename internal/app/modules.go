package app

import (
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/modules/race"
	"github.com/specialistvlad/gridsweep/modules/vehicle"
)

// coreModules is the definitive list of all modules that are compiled into
// the gridsweep binary.
var coreModules = []catalog.Module{
	&race.Module{},
	&vehicle.Module{},
}
