/*
go-arucotracker provides optical tracking of rigid bodies made up of one or
more ArUco fiducial markers.  Each video frame is searched for markers in one
or more marker vocabularies, the markers are assigned to the configured rigid
bodies and a 6 degree of freedom pose is estimated for each body.

With a calibrated camera poses are solved by perspective-n-point in the units
of the body geometry, without calibration a coarse pixel space position is
reported.  Markers that belong to no configured body are reported as
ephemeral single marker bodies.

Marker detection and video capture use OpenCV via GoCV.  See the arucotrack
command under the cmd subdirectory for example usage.
*/
package arucotracker
