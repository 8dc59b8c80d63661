package app

import (
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/modules/fileinput"
	"github.com/vk/pipegrid/modules/filesink"
	"github.com/vk/pipegrid/modules/gather"
	"github.com/vk/pipegrid/modules/http_client"
	"github.com/vk/pipegrid/modules/print"
	"github.com/vk/pipegrid/modules/text"
)

// coreModules is the definitive list of all modules that are compiled into
// the pipegrid binary.
var coreModules = []registry.Module{
	&fileinput.Module{},
	&text.Module{},
	&gather.Module{},
	&http_client.Module{},
	&filesink.Module{},
	&print.Module{},
}
